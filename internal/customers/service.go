package customers

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/internal/naming"
	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/excommerce-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Defaults classify customers created by the storefront.
type Defaults struct {
	CustomerGroup string
	Territory     string
	Country       string
}

func (d Defaults) withFallbacks() Defaults {
	if strings.TrimSpace(d.CustomerGroup) == "" {
		d.CustomerGroup = "Individual"
	}
	if strings.TrimSpace(d.Territory) == "" {
		d.Territory = "All Territories"
	}
	if strings.TrimSpace(d.Country) == "" {
		d.Country = "Ghana"
	}
	return d
}

// Service finds and creates customers and their linked records.
type Service interface {
	FindByPhone(ctx context.Context, phone string) (*Match, error)
	FindByName(ctx context.Context, name string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, input NewCustomer) (*models.Customer, error)
	CreateWithDetails(ctx context.Context, input CreateCustomerInput) (*CustomerDetail, error)
	CreateFromGuest(ctx context.Context, input GuestCustomerInput) (*CustomerDetail, error)
	Addresses(ctx context.Context, customerName string) ([]AddressView, error)
	PrimaryAddress(ctx context.Context, customerName string, addressType enums.AddressType) (*models.Address, error)
	WithTx(tx *gorm.DB) Service
}

type service struct {
	db       txRunner
	repo     *Repository
	names    naming.Generator
	defaults Defaults
}

// NewService wires the customer service.
func NewService(db txRunner, repo *Repository, names naming.Generator, defaults Defaults) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("customer repository required")
	}
	if names == nil {
		return nil, fmt.Errorf("name generator required")
	}
	return &service{db: db, repo: repo, names: names, defaults: defaults.withFallbacks()}, nil
}

// WithTx binds the service to an open transaction. Writes made through the
// returned service commit or roll back with tx.
func (s *service) WithTx(tx *gorm.DB) Service {
	if tx == nil {
		return s
	}
	return &service{db: boundTx{tx: tx}, repo: s.repo.WithTx(tx), names: s.names, defaults: s.defaults}
}

type boundTx struct {
	tx *gorm.DB
}

func (b boundTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(b.tx)
}

// FindByPhone checks the customer record, then linked contacts, then linked
// addresses, and returns the first hit.
func (s *service) FindByPhone(ctx context.Context, phone string) (*Match, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, nil
	}

	lookups := []struct {
		source string
		find   func(context.Context, string) (*models.Customer, error)
	}{
		{SourceCustomer, s.repo.FindByMobile},
		{SourceContact, s.repo.FindByContactPhone},
		{SourceAddress, s.repo.FindByAddressPhone},
	}
	for _, lookup := range lookups {
		customer, err := lookup.find(ctx, phone)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer by "+lookup.source+" phone")
		}
		if customer != nil {
			return &Match{Customer: toSummary(customer), Source: lookup.source}, nil
		}
	}
	return nil, nil
}

func (s *service) FindByName(ctx context.Context, name string) (*models.Customer, error) {
	customer, err := s.repo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Customer not found")
	}
	return customer, nil
}

func (s *service) CreateCustomer(ctx context.Context, input NewCustomer) (*models.Customer, error) {
	var created *models.Customer
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		created, err = s.insertCustomer(ctx, tx, input)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) insertCustomer(ctx context.Context, tx *gorm.DB, input NewCustomer) (*models.Customer, error) {
	name, err := s.names.Next(ctx, tx, naming.SeriesCustomer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate customer name")
	}
	customerName := strings.TrimSpace(input.Name)
	if customerName == "" {
		customerName = "Guest Customer"
	}
	customer := &models.Customer{
		Name:          name,
		CustomerName:  customerName,
		CustomerType:  enums.CustomerTypeIndividual,
		CustomerGroup: s.defaults.CustomerGroup,
		Territory:     s.defaults.Territory,
		MobileNo:      optional(input.Phone),
		EmailID:       optional(input.Email),
	}
	if err := s.repo.WithTx(tx).CreateCustomer(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return customer, nil
}

func (s *service) CreateWithDetails(ctx context.Context, input CreateCustomerInput) (*CustomerDetail, error) {
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_name is required")
	}

	detail := &CustomerDetail{Created: true}
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		customer, err := s.insertCustomer(ctx, tx, NewCustomer{
			Name:  input.CustomerName,
			Phone: input.Phone,
			Email: input.Email,
		})
		if err != nil {
			return err
		}
		detail.Customer = *customer

		firstName := strings.TrimSpace(input.FirstName)
		if firstName == "" {
			firstName = customer.CustomerName
		}
		contact, err := s.insertContact(ctx, tx, customer.Name, models.Contact{
			FirstName: firstName,
			LastName:  optional(input.LastName),
			EmailID:   optional(input.Email),
			Phone:     optional(input.Phone),
			MobileNo:  optional(input.Phone),
		})
		if err != nil {
			return err
		}
		detail.Contact = contact

		var addressName *string
		if strings.TrimSpace(input.AddressLine1) != "" {
			country := strings.TrimSpace(input.Country)
			if country == "" {
				country = s.defaults.Country
			}
			address, err := s.insertAddress(ctx, tx, customer.Name, models.Address{
				AddressTitle:      customer.CustomerName,
				AddressType:       enums.AddressTypeShipping,
				AddressLine1:      strings.TrimSpace(input.AddressLine1),
				AddressLine2:      optional(input.AddressLine2),
				City:              strings.TrimSpace(input.City),
				State:             optional(input.State),
				Pincode:           optional(input.Pincode),
				Country:           country,
				Phone:             optional(input.Phone),
				EmailID:           optional(input.Email),
				IsPrimaryAddress:  true,
				IsShippingAddress: true,
			})
			if err != nil {
				return err
			}
			detail.Address = address
			addressName = &address.Name
		}

		if err := repo.SetPrimary(ctx, customer.Name, &contact.Name, addressName); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set primary contact")
		}
		detail.Customer.CustomerPrimaryContact = &contact.Name
		detail.Customer.CustomerPrimaryAddress = addressName
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) CreateFromGuest(ctx context.Context, input GuestCustomerInput) (*CustomerDetail, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	if name == "" || email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Guest name and email are required to create customer")
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer by email")
	}
	if existing != nil {
		return &CustomerDetail{Customer: *existing, Created: false}, nil
	}

	detail := &CustomerDetail{Created: true}
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		customer, err := s.insertCustomer(ctx, tx, NewCustomer{Name: name, Phone: input.Phone, Email: email})
		if err != nil {
			return err
		}
		detail.Customer = *customer

		first, last := splitName(name)
		contact, err := s.insertContact(ctx, tx, customer.Name, models.Contact{
			FirstName:        first,
			LastName:         optional(last),
			EmailID:          &email,
			Phone:            optional(input.Phone),
			MobileNo:         optional(input.Phone),
			IsPrimaryContact: true,
		})
		if err != nil {
			return err
		}
		detail.Contact = contact

		billing := strings.TrimSpace(input.BillingAddress)
		shipping := strings.TrimSpace(input.ShippingAddress)
		var primary *string
		if billing != "" {
			address, err := s.insertAddress(ctx, tx, customer.Name, s.guestAddress(name, email, input.Phone, billing, enums.AddressTypeBilling))
			if err != nil {
				return err
			}
			detail.Address = address
			primary = &address.Name
		}
		if shipping != "" && shipping != billing {
			address, err := s.insertAddress(ctx, tx, customer.Name, s.guestAddress(name, email, input.Phone, shipping, enums.AddressTypeShipping))
			if err != nil {
				return err
			}
			detail.Extra = append(detail.Extra, *address)
		}

		if err := s.repo.WithTx(tx).SetPrimary(ctx, customer.Name, &contact.Name, primary); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set primary contact")
		}
		detail.Customer.CustomerPrimaryContact = &contact.Name
		detail.Customer.CustomerPrimaryAddress = primary
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *service) guestAddress(name, email, phone, line string, addressType enums.AddressType) models.Address {
	return models.Address{
		AddressTitle:      name + " - " + addressType.String(),
		AddressType:       addressType,
		AddressLine1:      line,
		Country:           s.defaults.Country,
		Phone:             optional(phone),
		EmailID:           optional(email),
		IsPrimaryAddress:  addressType == enums.AddressTypeBilling,
		IsShippingAddress: addressType == enums.AddressTypeShipping,
	}
}

func (s *service) insertContact(ctx context.Context, tx *gorm.DB, customerName string, contact models.Contact) (*models.Contact, error) {
	name, err := s.names.Next(ctx, tx, naming.SeriesContact)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate contact name")
	}
	contact.Name = name
	if err := s.repo.WithTx(tx).CreateContact(ctx, &contact, customerName); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create contact")
	}
	return &contact, nil
}

func (s *service) insertAddress(ctx context.Context, tx *gorm.DB, customerName string, address models.Address) (*models.Address, error) {
	name, err := s.names.Next(ctx, tx, naming.SeriesAddress)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate address name")
	}
	address.Name = name
	if err := s.repo.WithTx(tx).CreateAddress(ctx, &address, customerName); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	return &address, nil
}

func (s *service) Addresses(ctx context.Context, customerName string) ([]AddressView, error) {
	if _, err := s.FindByName(ctx, customerName); err != nil {
		return nil, err
	}
	addresses, err := s.repo.ListAddresses(ctx, strings.TrimSpace(customerName), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	views := make([]AddressView, 0, len(addresses))
	for _, a := range addresses {
		views = append(views, toAddressView(a))
	}
	return views, nil
}

// PrimaryAddress returns the customer's first linked address of the given
// type, or nil when there is none.
func (s *service) PrimaryAddress(ctx context.Context, customerName string, addressType enums.AddressType) (*models.Address, error) {
	addresses, err := s.repo.ListAddresses(ctx, customerName, &addressType)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup address")
	}
	if len(addresses) == 0 {
		return nil, nil
	}
	return &addresses[0], nil
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
