package models

// PaymentIntent mirrors a payment processor's intent object.
type PaymentIntent struct {
	ClientSecret string `json:"clientSecret"`
	Amount       int    `json:"amount"`
	Currency     string `json:"currency"`
}

// PaymentResult is the outcome of a charge.
type PaymentResult struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Amount        int    `json:"amount"`
}

// PlanInfo describes a subscription plan from the billing catalog. Price is
// in whole US dollars per month.
type PlanInfo struct {
	ID          Plan     `yaml:"id"`
	Name        string   `yaml:"name"`
	Price       int      `yaml:"price"`
	Credits     int      `yaml:"credits"`
	Popular     bool     `yaml:"popular"`
	Features    []string `yaml:"features"`
	Limitations []string `yaml:"limitations"`
}

// CreditPackage is a one-off credit top-up.
type CreditPackage struct {
	ID       string   `yaml:"id"`
	Name     string   `yaml:"name"`
	Credits  int      `yaml:"credits"`
	Price    int      `yaml:"price"`
	Popular  bool     `yaml:"popular"`
	Features []string `yaml:"features"`
}
