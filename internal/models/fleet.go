package models

import (
	"time"

	"github.com/google/uuid"
)

// TenantScoped is implemented by every business entity. The scope column is
// set by the service layer from the session tenant, never from the payload.
type TenantScoped interface {
	GetID() uuid.UUID
	SetID(uuid.UUID)
	GetTenantID() uuid.UUID
	SetTenantID(uuid.UUID)
	TableName() string
	Validate() map[string]string
}

// Client is a customer of the fleet operator.
type Client struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Name         string    `json:"name" gorm:"type:varchar(255);not null"`
	VATCode      string    `json:"vat_code" gorm:"type:varchar(50)"`
	ContactName  string    `json:"contact_name" gorm:"type:varchar(255)"`
	ContactEmail string    `json:"contact_email" gorm:"type:varchar(255)"`
	ContactPhone string    `json:"contact_phone" gorm:"type:varchar(50)"`
	Address      string    `json:"address" gorm:"type:varchar(500)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (c *Client) GetID() uuid.UUID { return c.ID }
func (c *Client) SetID(id uuid.UUID) { c.ID = id }
func (c *Client) GetTenantID() uuid.UUID { return c.TenantID }
func (c *Client) SetTenantID(id uuid.UUID) { c.TenantID = id }
func (Client) TableName() string { return "clients" }

func (c *Client) Validate() map[string]string {
	errs := map[string]string{}
	if c.Name == "" {
		errs["name"] = "name is required"
	}
	return errs
}

// Truck is a tractor unit.
type Truck struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`
	PlateNumber  string     `json:"plate_number" gorm:"type:varchar(20);not null"`
	Make         string     `json:"make" gorm:"type:varchar(100)"`
	Model        string     `json:"model" gorm:"type:varchar(100)"`
	Year         int        `json:"year"`
	VIN          string     `json:"vin" gorm:"type:varchar(50)"`
	InspectionAt *time.Time `json:"inspection_at"`
	GroupID      *uuid.UUID `json:"group_id" gorm:"type:uuid;index"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (t *Truck) GetID() uuid.UUID { return t.ID }
func (t *Truck) SetID(id uuid.UUID) { t.ID = id }
func (t *Truck) GetTenantID() uuid.UUID { return t.TenantID }
func (t *Truck) SetTenantID(id uuid.UUID) { t.TenantID = id }
func (Truck) TableName() string { return "trucks" }

func (t *Truck) Validate() map[string]string {
	errs := map[string]string{}
	if t.PlateNumber == "" {
		errs["plate_number"] = "plate_number is required"
	}
	return errs
}

// TrailerType describes a trailer specification (box, reefer, tilt...).
type TrailerType struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:varchar(500)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (t *TrailerType) GetID() uuid.UUID { return t.ID }
func (t *TrailerType) SetID(id uuid.UUID) { t.ID = id }
func (t *TrailerType) GetTenantID() uuid.UUID { return t.TenantID }
func (t *TrailerType) SetTenantID(id uuid.UUID) { t.TenantID = id }
func (TrailerType) TableName() string { return "trailer_types" }

func (t *TrailerType) Validate() map[string]string {
	errs := map[string]string{}
	if t.Name == "" {
		errs["name"] = "name is required"
	}
	return errs
}

// Trailer is a towed unit, optionally typed and paired with a truck.
type Trailer struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`
	PlateNumber   string     `json:"plate_number" gorm:"type:varchar(20);not null"`
	TrailerTypeID *uuid.UUID `json:"trailer_type_id" gorm:"type:uuid;index"`
	TruckID       *uuid.UUID `json:"truck_id" gorm:"type:uuid;index"`
	InspectionAt  *time.Time `json:"inspection_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (t *Trailer) GetID() uuid.UUID { return t.ID }
func (t *Trailer) SetID(id uuid.UUID) { t.ID = id }
func (t *Trailer) GetTenantID() uuid.UUID { return t.TenantID }
func (t *Trailer) SetTenantID(id uuid.UUID) { t.TenantID = id }
func (Trailer) TableName() string { return "trailers" }

func (t *Trailer) Validate() map[string]string {
	errs := map[string]string{}
	if t.PlateNumber == "" {
		errs["plate_number"] = "plate_number is required"
	}
	return errs
}

// Driver operates trucks; drivers are assignable to shipments.
type Driver struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`
	FirstName     string     `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName      string     `json:"last_name" gorm:"type:varchar(100);not null"`
	LicenseNumber string     `json:"license_number" gorm:"type:varchar(50)"`
	LicenseExpiry *time.Time `json:"license_expiry"`
	Phone         string     `json:"phone" gorm:"type:varchar(50)"`
	TruckID       *uuid.UUID `json:"truck_id" gorm:"type:uuid;index"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (d *Driver) GetID() uuid.UUID { return d.ID }
func (d *Driver) SetID(id uuid.UUID) { d.ID = id }
func (d *Driver) GetTenantID() uuid.UUID { return d.TenantID }
func (d *Driver) SetTenantID(id uuid.UUID) { d.TenantID = id }
func (Driver) TableName() string { return "drivers" }

func (d *Driver) Validate() map[string]string {
	errs := map[string]string{}
	if d.FirstName == "" {
		errs["first_name"] = "first_name is required"
	}
	if d.LastName == "" {
		errs["last_name"] = "last_name is required"
	}
	return errs
}

// Employee is a back-office staff record. Approving a pending user creates
// the matching employee row.
type Employee struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`
	UserID    *uuid.UUID `json:"user_id" gorm:"type:uuid;index"`
	FirstName string     `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName  string     `json:"last_name" gorm:"type:varchar(100)"`
	Email     string     `json:"email" gorm:"type:varchar(255)"`
	JobTitle  string     `json:"job_title" gorm:"type:varchar(255)"`
	GroupID   *uuid.UUID `json:"group_id" gorm:"type:uuid;index"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (e *Employee) GetID() uuid.UUID { return e.ID }
func (e *Employee) SetID(id uuid.UUID) { e.ID = id }
func (e *Employee) GetTenantID() uuid.UUID { return e.TenantID }
func (e *Employee) SetTenantID(id uuid.UUID) { e.TenantID = id }
func (Employee) TableName() string { return "employees" }

func (e *Employee) Validate() map[string]string {
	errs := map[string]string{}
	if e.FirstName == "" {
		errs["first_name"] = "first_name is required"
	}
	return errs
}

// Shipment is a load moved for a client between two places on a date window.
type Shipment struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID     uuid.UUID  `json:"tenant_id" gorm:"type:uuid;not null;index"`
	ClientID     *uuid.UUID `json:"client_id" gorm:"type:uuid;index"`
	DriverID     *uuid.UUID `json:"driver_id" gorm:"type:uuid;index"`
	TruckID      *uuid.UUID `json:"truck_id" gorm:"type:uuid;index"`
	TrailerID    *uuid.UUID `json:"trailer_id" gorm:"type:uuid;index"`
	Origin       string     `json:"origin" gorm:"type:varchar(255);not null"`
	Destination  string     `json:"destination" gorm:"type:varchar(255);not null"`
	LoadDate     *time.Time `json:"load_date" gorm:"index"`
	UnloadDate   *time.Time `json:"unload_date"`
	CargoWeight  float64    `json:"cargo_weight"`
	PriceAgreed  float64    `json:"price_agreed"`
	Status       string     `json:"status" gorm:"type:varchar(50);default:'planned'"`
	Notes        string     `json:"notes" gorm:"type:text"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (s *Shipment) GetID() uuid.UUID { return s.ID }
func (s *Shipment) SetID(id uuid.UUID) { s.ID = id }
func (s *Shipment) GetTenantID() uuid.UUID { return s.TenantID }
func (s *Shipment) SetTenantID(id uuid.UUID) { s.TenantID = id }
func (Shipment) TableName() string { return "shipments" }

func (s *Shipment) Validate() map[string]string {
	errs := map[string]string{}
	if s.Origin == "" {
		errs["origin"] = "origin is required"
	}
	if s.Destination == "" {
		errs["destination"] = "destination is required"
	}
	return errs
}

// Group is an organisational unit of trucks and employees.
type Group struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:varchar(500)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (g *Group) GetID() uuid.UUID { return g.ID }
func (g *Group) SetID(id uuid.UUID) { g.ID = id }
func (g *Group) GetTenantID() uuid.UUID { return g.TenantID }
func (g *Group) SetTenantID(id uuid.UUID) { g.TenantID = id }
func (Group) TableName() string { return "groups" }

func (g *Group) Validate() map[string]string {
	errs := map[string]string{}
	if g.Name == "" {
		errs["name"] = "name is required"
	}
	return errs
}

// GroupRegion maps a region keyword to a group for dispatch routing.
type GroupRegion struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  uuid.UUID `json:"tenant_id" gorm:"type:uuid;not null;index"`
	GroupID   uuid.UUID `json:"group_id" gorm:"type:uuid;not null;index"`
	Region    string    `json:"region" gorm:"type:varchar(100);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *GroupRegion) GetID() uuid.UUID { return g.ID }
func (g *GroupRegion) SetID(id uuid.UUID) { g.ID = id }
func (g *GroupRegion) GetTenantID() uuid.UUID { return g.TenantID }
func (g *GroupRegion) SetTenantID(id uuid.UUID) { g.TenantID = id }
func (GroupRegion) TableName() string { return "group_regions" }

func (g *GroupRegion) Validate() map[string]string {
	errs := map[string]string{}
	if g.Region == "" {
		errs["region"] = "region is required"
	}
	if g.GroupID == uuid.Nil {
		errs["group_id"] = "group_id is required"
	}
	return errs
}
