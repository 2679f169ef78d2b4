package verifier

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/facts.yaml
var defaultFacts []byte

// Facts is the read-only table of critical company information that answers
// are checked against.
type Facts struct {
	CompanyName        string   `yaml:"company_name"`
	CompanyDescription string   `yaml:"company_description"`
	Address            string   `yaml:"address"`
	LocalityTokens     []string `yaml:"locality_tokens"`
	Phones             []string `yaml:"phones"`
	Email              string   `yaml:"email"`
	TeamSize           int      `yaml:"team_size"`
	TeamSizeCeiling    int      `yaml:"team_size_ceiling"`
	FoundedYear        int      `yaml:"founded_year"`
}

// LoadFacts reads the facts file at path, or the embedded default when path is empty.
func LoadFacts(path string) (*Facts, error) {
	data := defaultFacts
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read facts file: %w", err)
		}
		data = b
	}
	return ParseFacts(data)
}

func ParseFacts(data []byte) (*Facts, error) {
	var f Facts
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid facts format: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("invalid facts format: %w", err)
	}
	if f.TeamSizeCeiling <= 0 {
		f.TeamSizeCeiling = 500
	}
	f.CompanyDescription = strings.TrimSpace(f.CompanyDescription)
	return &f, nil
}

func (f *Facts) validate() error {
	switch {
	case f.CompanyName == "":
		return errors.New("company_name is required")
	case f.Address == "" || len(f.LocalityTokens) == 0:
		return errors.New("address and locality_tokens are required")
	case len(f.Phones) == 0:
		return errors.New("at least one phone is required")
	case f.Email == "":
		return errors.New("email is required")
	}
	return nil
}

// PrimaryPhone is the number substituted for unverified ones.
func (f *Facts) PrimaryPhone() string {
	return f.Phones[0]
}

func (f *Facts) addressText() string {
	return fmt.Sprintf("Our head office is at %s.", f.Address)
}

func (f *Facts) phoneText() string {
	return fmt.Sprintf("You can call %s at %s.", f.CompanyName, strings.Join(f.Phones, " or "))
}

func (f *Facts) emailText() string {
	return fmt.Sprintf("You can email %s at %s.", f.CompanyName, f.Email)
}

func (f *Facts) teamText() string {
	return fmt.Sprintf("%s has a team of more than %d professionals.", f.CompanyName, f.TeamSize)
}

func (f *Facts) foundedText() string {
	return fmt.Sprintf("%s was founded in %d.", f.CompanyName, f.FoundedYear)
}
