package customers

import (
	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
)

// Match sources, in lookup priority order.
const (
	SourceCustomer = "customer"
	SourceContact  = "contact"
	SourceAddress  = "address"
)

// Summary is the public projection of a customer.
type Summary struct {
	Name         string  `json:"name"`
	CustomerName string  `json:"customer_name"`
	EmailID      *string `json:"email_id"`
	MobileNo     *string `json:"mobile_no"`
}

// Match is a customer found by phone and where the phone was found.
type Match struct {
	Customer Summary `json:"customer"`
	Source   string  `json:"source"`
}

// NewCustomer is the minimal data for a customer record.
type NewCustomer struct {
	Name  string
	Phone string
	Email string
}

// CreateCustomerInput carries a customer with one contact and one shipping address.
type CreateCustomerInput struct {
	CustomerName string `json:"customer_name" validate:"required,max=140"`
	FirstName    string `json:"first_name" validate:"omitempty,max=140"`
	LastName     string `json:"last_name" validate:"omitempty,max=140"`
	Phone        string `json:"phone" validate:"omitempty,max=32,phone"`
	Email        string `json:"email" validate:"omitempty,email"`
	AddressLine1 string `json:"address_line1" validate:"omitempty,max=240"`
	AddressLine2 string `json:"address_line2" validate:"omitempty,max=240"`
	City         string `json:"city" validate:"omitempty,max=140"`
	State        string `json:"state" validate:"omitempty,max=140"`
	Pincode      string `json:"pincode" validate:"omitempty,max=20"`
	Country      string `json:"country" validate:"omitempty,max=140"`
}

// GuestCustomerInput promotes checkout guest details into a customer.
type GuestCustomerInput struct {
	Name            string `json:"guest_name" validate:"omitempty,max=140"`
	Email           string `json:"guest_email" validate:"omitempty,email"`
	Phone           string `json:"guest_phone" validate:"omitempty,max=32,phone"`
	BillingAddress  string `json:"guest_billing_address" validate:"omitempty,max=1000"`
	ShippingAddress string `json:"guest_shipping_address" validate:"omitempty,max=1000"`
}

// CustomerDetail is a created customer with its linked records.
type CustomerDetail struct {
	Customer models.Customer  `json:"customer"`
	Contact  *models.Contact  `json:"contact,omitempty"`
	Address  *models.Address  `json:"address,omitempty"`
	Created  bool             `json:"created"`
	Extra    []models.Address `json:"additional_addresses,omitempty"`
}

// AddressView is an address as returned to callers.
type AddressView struct {
	Name              string            `json:"name"`
	AddressTitle      string            `json:"address_title"`
	AddressType       enums.AddressType `json:"address_type"`
	AddressLine1      string            `json:"address_line1"`
	AddressLine2      *string           `json:"address_line2"`
	City              string            `json:"city"`
	State             *string           `json:"state"`
	Pincode           *string           `json:"pincode"`
	Country           string            `json:"country"`
	Phone             *string           `json:"phone"`
	IsPrimaryAddress  bool              `json:"is_primary_address"`
	IsShippingAddress bool              `json:"is_shipping_address"`
}

func toSummary(c *models.Customer) Summary {
	return Summary{Name: c.Name, CustomerName: c.CustomerName, EmailID: c.EmailID, MobileNo: c.MobileNo}
}

func toAddressView(a models.Address) AddressView {
	return AddressView{
		Name:              a.Name,
		AddressTitle:      a.AddressTitle,
		AddressType:       a.AddressType,
		AddressLine1:      a.AddressLine1,
		AddressLine2:      a.AddressLine2,
		City:              a.City,
		State:             a.State,
		Pincode:           a.Pincode,
		Country:           a.Country,
		Phone:             a.Phone,
		IsPrimaryAddress:  a.IsPrimaryAddress,
		IsShippingAddress: a.IsShippingAddress,
	}
}
