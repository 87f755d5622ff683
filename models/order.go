package models

import (
	"strings"
	"time"
)

// OrderStatus is the closed set of order states. Values are the wire codes.
type OrderStatus string

const (
	StatusInProgress OrderStatus = "in_progress"
	StatusDone       OrderStatus = "done"
	StatusCancelled  OrderStatus = "cancelled"
)

// AllStatuses lists every status in display order.
var AllStatuses = []OrderStatus{StatusInProgress, StatusDone, StatusCancelled}

// labels are the localized names shown to dispatchers; the legacy client
// sent these verbatim, so they are still accepted on input.
var labels = map[OrderStatus]string{
	StatusInProgress: "в работе",
	StatusDone:       "готово",
	StatusCancelled:  "отмена",
}

// ParseOrderStatus accepts a wire code or a localized label.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	s = strings.TrimSpace(s)
	for _, st := range AllStatuses {
		if s == string(st) || s == labels[st] {
			return st, true
		}
	}
	return "", false
}

// Label returns the localized display name.
func (s OrderStatus) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

func (s OrderStatus) Valid() bool {
	_, ok := labels[s]
	return ok
}

// VehicleType is the kind of vehicle that needs towing.
type VehicleType string

const (
	VehicleCar        VehicleType = "Car"
	VehicleMotorcycle VehicleType = "Motorcycle"
	VehicleBus        VehicleType = "Bus"
	VehicleTruck      VehicleType = "Truck"
)

var AllVehicleTypes = []VehicleType{VehicleCar, VehicleMotorcycle, VehicleBus, VehicleTruck}

// ParseVehicleType matches case-insensitively and returns the canonical value.
func ParseVehicleType(s string) (VehicleType, bool) {
	s = strings.TrimSpace(s)
	for _, v := range AllVehicleTypes {
		if strings.EqualFold(s, string(v)) {
			return v, true
		}
	}
	return "", false
}

// Order is a single tow request. Everything except Status is fixed at creation;
// Price is locked to the pricing formula in effect when the order was placed.
type Order struct {
	ID             uint        `json:"id" gorm:"primaryKey"`
	UserID         uint        `json:"userId" gorm:"not null;index"`
	User           User        `json:"-" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	CreatedAt      time.Time   `json:"createdAt" gorm:"not null;index"`
	PickupAddress  string      `json:"pickupAddress" gorm:"not null"`
	DropoffAddress string      `json:"dropoffAddress" gorm:"not null"`
	IsRunning      bool        `json:"isRunning" gorm:"not null"`
	HasDocs        bool        `json:"hasDocs" gorm:"not null"`
	CanWinch       bool        `json:"canWinch" gorm:"not null"`
	VehicleType    VehicleType `json:"vehicleType" gorm:"not null"`
	VehicleBrand   *string     `json:"vehicleBrand"`
	Comment        *string     `json:"comment"`
	DistanceKm     float64     `json:"distanceKm" gorm:"not null"`
	Price          int         `json:"price" gorm:"not null"`
	Status         OrderStatus `json:"status" gorm:"not null;default:'in_progress';index"`

	// UserEmail is filled by joined reads, never stored on the orders table.
	UserEmail string `json:"userEmail,omitempty" gorm:"->;-:migration"`
}

// OrderStatusHistory records every admin status change.
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"orderId" gorm:"not null;index"`
	FromStatus OrderStatus `json:"fromStatus"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"not null"`
	ChangedBy  uint        `json:"changedBy"`
	CreatedAt  time.Time   `json:"createdAt"`
}

func (OrderStatusHistory) TableName() string { return "order_status_history" }
