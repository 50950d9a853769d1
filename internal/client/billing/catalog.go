// Package billing holds the subscription plans and credit packages offered
// to users. The catalog ships embedded in the binary.
package billing

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog lists the subscription plans and credit packages on sale.
type Catalog struct {
	Plans    []models.PlanInfo      `yaml:"plans"`
	Packages []models.CreditPackage `yaml:"packages"`
}

// Default returns the embedded catalog. It panics if the embedded file is
// broken, which only a bad build can cause.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded billing catalog: %v", err))
	}
	return c
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	seen := map[string]bool{}
	for _, p := range c.Plans {
		if p.ID == "" || p.Price < 0 || p.Credits < 0 {
			return fmt.Errorf("invalid plan %q", p.ID)
		}
		if seen["plan:"+string(p.ID)] {
			return fmt.Errorf("duplicate plan %q", p.ID)
		}
		seen["plan:"+string(p.ID)] = true
	}
	for _, p := range c.Packages {
		if p.ID == "" || p.Price <= 0 || p.Credits <= 0 {
			return fmt.Errorf("invalid package %q", p.ID)
		}
		if seen["pkg:"+p.ID] {
			return fmt.Errorf("duplicate package %q", p.ID)
		}
		seen["pkg:"+p.ID] = true
	}
	if len(c.Plans) == 0 {
		return errors.New("catalog has no plans")
	}
	return nil
}

// Plan looks a plan up by id, ignoring case and surrounding spaces.
func (c *Catalog) Plan(id string) (models.PlanInfo, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range c.Plans {
		if string(p.ID) == id {
			return p, nil
		}
	}
	return models.PlanInfo{}, fmt.Errorf("%q: %w", id, common.ErrUnknownPlan)
}

// Package looks a credit package up by id, ignoring case and surrounding
// spaces.
func (c *Catalog) Package(id string) (models.CreditPackage, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range c.Packages {
		if p.ID == id {
			return p, nil
		}
	}
	return models.CreditPackage{}, fmt.Errorf("%q: %w", id, common.ErrUnknownPackage)
}
