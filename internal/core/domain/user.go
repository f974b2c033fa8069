package domain

// UserRecord mirrors the user payload of the upstream REST API.
// A zero ID means the record has not been created yet.
type UserRecord struct {
	ID       int     `json:"id,omitempty"`
	Name     string  `json:"name" validate:"required,min=3"`
	Username string  `json:"username" validate:"required,min=3"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Website  string  `json:"website" validate:"omitempty,weburl"`
	Address  Address `json:"address"`
	Company  Company `json:"company"`
}

// IsNew reports whether the record has no upstream identifier yet.
func (u UserRecord) IsNew() bool {
	return u.ID == 0
}

type Address struct {
	Street  string `json:"street"`
	Suite   string `json:"suite,omitempty"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode,omitempty"`
	Geo     Geo    `json:"geo"`
}

type Geo struct {
	Lat string `json:"lat,omitempty"`
	Lng string `json:"lng,omitempty"`
}

type Company struct {
	Name        string `json:"name" validate:"omitempty,min=3"`
	CatchPhrase string `json:"catchPhrase,omitempty"`
	BS          string `json:"bs,omitempty"`
}
