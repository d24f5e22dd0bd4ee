package models

const (
	DefaultSiteEmail   = "info@jobfinder.ru"
	DefaultSitePhone   = "+7 (999) 123-45-67"
	DefaultSiteAddress = "г. Москва, ул. Примерная, д. 123"
)

// Settings is the site-wide contact record. Only the first row is used.
type Settings struct {
	ID          int64  `db:"id" json:"-"`
	SiteEmail   string `db:"site_email" json:"site_email"`
	SitePhone   string `db:"site_phone" json:"site_phone"`
	SiteAddress string `db:"site_address" json:"site_address"`
}

func DefaultSettings() Settings {
	return Settings{
		SiteEmail:   DefaultSiteEmail,
		SitePhone:   DefaultSitePhone,
		SiteAddress: DefaultSiteAddress,
	}
}

type SettingsInput struct {
	SiteEmail   string `json:"site_email" validate:"required,email"`
	SitePhone   string `json:"site_phone" validate:"phone"`
	SiteAddress string `json:"site_address" validate:"min=8,max=100"`
}
