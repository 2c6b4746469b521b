package models

type Package struct {
	PackageID    string  `json:"package_id"`
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name,omitempty"`
	Name         string  `json:"name"`
	Price        float64 `json:"price"`
	Active       bool    `json:"active"`
}

type Addon struct {
	AddonID string  `json:"addon_id"`
	Name    string  `json:"name"`
	Price   float64 `json:"price"`
	Active  bool    `json:"active"`
}

type CustomFeature struct {
	FeatureID string  `json:"feature_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Active    bool    `json:"active"`
}

type Panchayath struct {
	PanchayathID string `json:"panchayath_id"`
	Name         string `json:"name"`
	WardCount    int    `json:"ward_count"`
}
