package customers

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/internal/repo"
	"github.com/angelmondragon/excommerce-backend/pkg/db/models"
	"github.com/angelmondragon/excommerce-backend/pkg/enums"
)

// Repository persists customers and the contacts and addresses linked to them.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Bind(tx)}
}

// FindByMobile matches customers.mobile_no exactly.
func (r *Repository) FindByMobile(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := r.DB(ctx).Where("mobile_no = ?", phone).Order("name ASC").Take(&customer).Error
	return repo.Optional(&customer, err)
}

// FindByContactPhone matches a linked contact's mobile or phone.
func (r *Repository) FindByContactPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := r.linked(ctx, enums.LinkParentContact).
		Joins("JOIN contacts ct ON ct.name = dl.parent").
		Where("ct.mobile_no = ? OR ct.phone = ?", phone, phone).
		Take(&customer).Error
	return repo.Optional(&customer, err)
}

// FindByAddressPhone matches a linked address phone.
func (r *Repository) FindByAddressPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := r.linked(ctx, enums.LinkParentAddress).
		Joins("JOIN addresses ad ON ad.name = dl.parent").
		Where("ad.phone = ?", phone).
		Take(&customer).Error
	return repo.Optional(&customer, err)
}

// FindByEmail matches customers.email_id exactly.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.DB(ctx).Where("email_id = ?", email).Order("name ASC").Take(&customer).Error
	return repo.Optional(&customer, err)
}

// FindByName loads a customer by primary key.
func (r *Repository) FindByName(ctx context.Context, name string) (*models.Customer, error) {
	var customer models.Customer
	err := r.DB(ctx).Where("name = ?", name).Take(&customer).Error
	return repo.Optional(&customer, err)
}

func (r *Repository) linked(ctx context.Context, parentType enums.LinkParentType) *gorm.DB {
	return r.DB(ctx).
		Model(&models.Customer{}).
		Select("customers.*").
		Joins("JOIN dynamic_links dl ON dl.link_name = customers.name AND dl.link_doctype = ? AND dl.parenttype = ?",
			enums.LinkDoctypeCustomer, parentType).
		Order("customers.name ASC")
}

func (r *Repository) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	return r.DB(ctx).Create(customer).Error
}

// CreateContact inserts a contact and links it to the customer.
func (r *Repository) CreateContact(ctx context.Context, contact *models.Contact, customerName string) error {
	if err := r.DB(ctx).Create(contact).Error; err != nil {
		return err
	}
	return r.link(ctx, contact.Name, enums.LinkParentContact, customerName)
}

// CreateAddress inserts an address and links it to the customer.
func (r *Repository) CreateAddress(ctx context.Context, address *models.Address, customerName string) error {
	if err := r.DB(ctx).Create(address).Error; err != nil {
		return err
	}
	return r.link(ctx, address.Name, enums.LinkParentAddress, customerName)
}

func (r *Repository) link(ctx context.Context, parent string, parentType enums.LinkParentType, customerName string) error {
	return r.DB(ctx).Create(&models.DynamicLink{
		Parent:      parent,
		ParentType:  parentType,
		LinkDoctype: enums.LinkDoctypeCustomer,
		LinkName:    customerName,
	}).Error
}

// SetPrimary records the customer's primary contact and address. Nil values are left unchanged.
func (r *Repository) SetPrimary(ctx context.Context, customerName string, contact, address *string) error {
	updates := map[string]any{}
	if contact != nil {
		updates["customer_primary_contact"] = *contact
	}
	if address != nil {
		updates["customer_primary_address"] = *address
	}
	if len(updates) == 0 {
		return nil
	}
	return r.DB(ctx).Model(&models.Customer{}).Where("name = ?", customerName).Updates(updates).Error
}

// ListAddresses returns the customer's linked addresses, primary first. A nil
// addressType returns every type.
func (r *Repository) ListAddresses(ctx context.Context, customerName string, addressType *enums.AddressType) ([]models.Address, error) {
	qb := r.DB(ctx).
		Model(&models.Address{}).
		Select("addresses.*").
		Joins("JOIN dynamic_links dl ON dl.parent = addresses.name AND dl.parenttype = ? AND dl.link_doctype = ?",
			enums.LinkParentAddress, enums.LinkDoctypeCustomer).
		Where("dl.link_name = ?", customerName)
	if addressType != nil {
		qb = qb.Where("addresses.address_type = ?", *addressType)
	}
	var addresses []models.Address
	if err := qb.Order("addresses.is_primary_address DESC").
		Order("addresses.name ASC").
		Find(&addresses).Error; err != nil {
		return nil, err
	}
	return addresses, nil
}
