// ABOUTME: Data models for scheduling and fulfillment entities
// ABOUTME: Defines LocalEvent, Order, TokenSet, and the merged agenda view
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventType classifies a scheduling record.
type EventType string

const (
	EventTypeFair        EventType = "fair"
	EventTypeGeneric     EventType = "generic-event"
	EventTypeAppointment EventType = "appointment"
	EventTypeDelivery    EventType = "delivery"
	EventTypeMeeting     EventType = "meeting"
)

// SyncStatus tracks whether a local event matches its Google counterpart.
type SyncStatus string

const (
	SyncStatusNotSynced SyncStatus = "not_synced"
	SyncStatusPending   SyncStatus = "pending"
	SyncStatusSynced    SyncStatus = "synced"
	SyncStatusError     SyncStatus = "error"
)

// SyncAgentActor is recorded as created_by on events inserted by a pull.
const SyncAgentActor = "google-sync"

// DefaultCalendarID is Google's primary calendar alias.
const DefaultCalendarID = "primary"

type LocalEvent struct {
	ID                  uuid.UUID  `json:"id"`
	Title               string     `json:"title"`
	Description         string     `json:"description,omitempty"`
	StartDate           time.Time  `json:"start_date"`
	EndDate             *time.Time `json:"end_date,omitempty"`
	AllDay              bool       `json:"all_day"`
	Location            string     `json:"location,omitempty"`
	Address             string     `json:"address,omitempty"`
	EventType           EventType  `json:"event_type"`
	EventCategory       string     `json:"event_category,omitempty"`
	ExpectedAttendees   int        `json:"expected_attendees,omitempty"`
	ProductsToBring     []string   `json:"products_to_bring,omitempty"`
	SpecialRequirements string     `json:"special_requirements,omitempty"`
	EstimatedRevenue    float64    `json:"estimated_revenue,omitempty"`
	GoogleEventID       string     `json:"google_event_id,omitempty"`
	GoogleCalendarID    string     `json:"google_calendar_id,omitempty"`
	SyncStatus          SyncStatus `json:"sync_status"`
	SyncError           string     `json:"sync_error,omitempty"`
	LastSyncAt          *time.Time `json:"last_sync_at,omitempty"`
	CreatedBy           string     `json:"created_by,omitempty"`
	AssignedTo          string     `json:"assigned_to,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Order is the slice of the fulfillment domain the agenda projection needs.
type Order struct {
	ID              uuid.UUID  `json:"id"`
	CustomerName    string     `json:"customer_name,omitempty"`
	Type            string     `json:"type"`
	Status          string     `json:"status"`
	ScheduledDate   *time.Time `json:"scheduled_date,omitempty"`
	DeliveryDate    *time.Time `json:"delivery_date,omitempty"`
	DeliveryAddress string     `json:"delivery_address,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

const (
	OrderTypeDelivery    = "delivery"
	OrderStatusPending   = "pending"
	OrderStatusScheduled = "scheduled"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// TokenSet is the persisted OAuth credential bundle. One row per provider;
// this design keeps a single "google" row.
type TokenSet struct {
	Provider     string    `json:"provider"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenType    string    `json:"token_type,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// VirtualIDPrefix marks agenda entries projected from delivery orders.
// Ids carrying it never address a stored event and must not be mutated.
const VirtualIDPrefix = "order_"

// IsVirtualID reports whether an event id addresses a projected order entry.
func IsVirtualID(id string) bool {
	return strings.HasPrefix(id, VirtualIDPrefix)
}

// AgendaEvent is one entry of the merged calendar view: either a stored
// LocalEvent or a virtual projection of a delivery order.
type AgendaEvent struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	AllDay      bool       `json:"all_day"`
	Location    string     `json:"location,omitempty"`
	EventType   EventType  `json:"event_type"`
	Status      string     `json:"status,omitempty"`
	SyncStatus  SyncStatus `json:"sync_status"`
	Virtual     bool       `json:"virtual"`
}
