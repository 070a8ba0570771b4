package domain

import "strings"

// CustomerStatus type for the customer lifecycle
type CustomerStatus string

const (
	StatusActive   CustomerStatus = "ACTIVE"
	StatusBlocked  CustomerStatus = "BLOCKED"
	StatusInactive CustomerStatus = "INACTIVE"
)

// Valid reports whether s is one of the enumerated statuses.
func (s CustomerStatus) Valid() bool {
	switch s {
	case StatusActive, StatusBlocked, StatusInactive:
		return true
	}
	return false
}

// Customer represents a person receiving training services.
type Customer struct {
	ID          string         `bson:"_id" json:"id"`
	FirstName   string         `bson:"firstName" json:"first_name"`
	LastName    string         `bson:"lastName,omitempty" json:"last_name,omitempty"`
	NickName    string         `bson:"nickName,omitempty" json:"nick_name,omitempty"`
	Email       string         `bson:"email" json:"email"`
	Document    string         `bson:"document,omitempty" json:"document,omitempty"` // National ID, already masked
	Phone       string         `bson:"phone,omitempty" json:"phone,omitempty"`
	Address     string         `bson:"address,omitempty" json:"address,omitempty"`
	City        string         `bson:"city" json:"city"`
	UF          string         `bson:"uf" json:"uf"` // Two-letter region code
	Zip         string         `bson:"zip,omitempty" json:"zip,omitempty"`
	Country     string         `bson:"country,omitempty" json:"country,omitempty"`
	Status      CustomerStatus `bson:"status" json:"status"`
	PlanID      string         `bson:"planId" json:"plan_id"`
	AnamnesisID string         `bson:"anamnesisId,omitempty" json:"anamnesis_id,omitempty"` // Generated on creation
}

// FullName joins first and last name, skipping an empty last name.
func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// NewCustomer carries the caller-supplied fields of a customer.
// ID, AnamnesisID and the default status are assigned by the store.
type NewCustomer struct {
	FirstName string
	LastName  string
	NickName  string
	Email     string
	Document  string
	Phone     string
	Address   string
	City      string
	UF        string
	Zip       string
	Country   string
	Status    CustomerStatus // Empty means ACTIVE
	PlanID    string
}

// CustomerPatch holds a partial update. Nil fields are left untouched.
type CustomerPatch struct {
	FirstName *string
	LastName  *string
	NickName  *string
	Email     *string
	Document  *string
	Phone     *string
	Address   *string
	City      *string
	UF        *string
	Zip       *string
	Country   *string
	Status    *CustomerStatus
	PlanID    *string
}

// Apply merges the present fields of p into c. A status outside the
// enumeration is ignored.
func (p CustomerPatch) Apply(c *Customer) {
	setString(&c.FirstName, p.FirstName)
	setString(&c.LastName, p.LastName)
	setString(&c.NickName, p.NickName)
	setString(&c.Email, p.Email)
	setString(&c.Document, p.Document)
	setString(&c.Phone, p.Phone)
	setString(&c.Address, p.Address)
	setString(&c.City, p.City)
	setString(&c.UF, p.UF)
	setString(&c.Zip, p.Zip)
	setString(&c.Country, p.Country)
	setString(&c.PlanID, p.PlanID)
	if p.Status != nil && p.Status.Valid() {
		c.Status = *p.Status
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p CustomerPatch) IsEmpty() bool {
	return p == CustomerPatch{}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
