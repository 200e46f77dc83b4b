package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/excommerce-backend/pkg/enums"
)

// Customer is the party an order is billed to.
type Customer struct {
	Name                   string             `gorm:"column:name;primaryKey"`
	CustomerName           string             `gorm:"column:customer_name;not null"`
	CustomerType           enums.CustomerType `gorm:"column:customer_type;not null"`
	CustomerGroup          string             `gorm:"column:customer_group;not null"`
	Territory              string             `gorm:"column:territory;not null"`
	MobileNo               *string            `gorm:"column:mobile_no;index"`
	EmailID                *string            `gorm:"column:email_id;index"`
	CustomerPrimaryContact *string            `gorm:"column:customer_primary_contact"`
	CustomerPrimaryAddress *string            `gorm:"column:customer_primary_address"`
	CreatedAt              time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// Contact is a person record linked to customers through DynamicLink rows.
type Contact struct {
	Name             string    `gorm:"column:name;primaryKey"`
	FirstName        string    `gorm:"column:first_name;not null"`
	LastName         *string   `gorm:"column:last_name"`
	EmailID          *string   `gorm:"column:email_id"`
	Phone            *string   `gorm:"column:phone;index"`
	MobileNo         *string   `gorm:"column:mobile_no;index"`
	IsPrimaryContact bool      `gorm:"column:is_primary_contact;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Address is a postal address linked to customers through DynamicLink rows.
type Address struct {
	Name              string            `gorm:"column:name;primaryKey"`
	AddressTitle      string            `gorm:"column:address_title;not null"`
	AddressType       enums.AddressType `gorm:"column:address_type;not null"`
	AddressLine1      string            `gorm:"column:address_line1;not null"`
	AddressLine2      *string           `gorm:"column:address_line2"`
	City              string            `gorm:"column:city;not null"`
	State             *string           `gorm:"column:state"`
	Pincode           *string           `gorm:"column:pincode"`
	Country           string            `gorm:"column:country;not null"`
	Phone             *string           `gorm:"column:phone;index"`
	EmailID           *string           `gorm:"column:email_id"`
	IsPrimaryAddress  bool              `gorm:"column:is_primary_address;not null"`
	IsShippingAddress bool              `gorm:"column:is_shipping_address;not null"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// DynamicLink associates a Contact or Address with the record it belongs to.
type DynamicLink struct {
	ID          string               `gorm:"column:id;primaryKey"`
	Parent      string               `gorm:"column:parent;not null;index"`
	ParentType  enums.LinkParentType `gorm:"column:parenttype;not null"`
	LinkDoctype string               `gorm:"column:link_doctype;not null"`
	LinkName    string               `gorm:"column:link_name;not null;index"`
}

func (l *DynamicLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
