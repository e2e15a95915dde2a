package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/volatiletech/null/v8"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"

	StatusActive  = "active"
	StatusExpired = "expired"
)

type User struct {
	ID           string         `db:"id" json:"id"`
	Username     string         `db:"username" json:"username"`
	PasswordHash string         `db:"password_hash" json:"-"`
	Role         string         `db:"role" json:"role"`
	Permissions  pq.StringArray `db:"permissions" json:"permissions"`
	FullName     null.String    `db:"full_name" json:"full_name"`
	Email        null.String    `db:"email" json:"email"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// Student is a member row. SeatNumber, ShiftTitle and ShiftDescription are
// filled from joins on read and ignored on write.
type Student struct {
	ID               string       `db:"id" json:"id"`
	Name             string       `db:"name" json:"name"`
	AdmissionNo      null.String  `db:"admission_no" json:"admission_no"`
	Email            null.String  `db:"email" json:"email"`
	Phone            null.String  `db:"phone" json:"phone"`
	Address          null.String  `db:"address" json:"address"`
	MembershipStart  Date         `db:"membership_start" json:"membership_start"`
	MembershipEnd    Date         `db:"membership_end" json:"membership_end"`
	ShiftID          null.String  `db:"shift_id" json:"shift_id"`
	SeatID           null.String  `db:"seat_id" json:"seat_id"`
	Status           string       `db:"status" json:"status"`
	Fee              null.Float64 `db:"fee" json:"fee"`
	ProfileImageURL  null.String  `db:"profile_image_url" json:"profile_image_url"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at" json:"updated_at"`
	SeatNumber       null.String  `db:"seat_number" json:"seat_number"`
	ShiftTitle       null.String  `db:"shift_title" json:"shift_title"`
	ShiftDescription null.String  `db:"shift_description" json:"shift_description"`
}

type Seat struct {
	ID         string    `db:"id" json:"id"`
	SeatNumber string    `db:"seat_number" json:"seat_number"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// SeatView is a seat with its assignment computed at read time.
type SeatView struct {
	ID         string `db:"id" json:"id"`
	SeatNumber string `db:"seat_number" json:"seat_number"`
	IsAssigned bool   `db:"is_assigned" json:"is_assigned"`
}

type Schedule struct {
	ID          string      `db:"id" json:"id"`
	Title       string      `db:"title" json:"title"`
	Description null.String `db:"description" json:"description"`
	Time        null.String `db:"time" json:"time"`
	EventDate   *Date       `db:"event_date" json:"event_date"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

type Session struct {
	ID     string    `db:"sid"`
	Data   []byte    `db:"sess"`
	Expire time.Time `db:"expire"`
}

type MediaAsset struct {
	ID          string      `db:"id"`
	Filename    null.String `db:"filename"`
	ContentType string      `db:"content_type"`
	SizeBytes   int64       `db:"size_bytes"`
	Sha256      string      `db:"sha256"`
	UploadedBy  null.String `db:"uploaded_by"`
	CreatedAt   time.Time   `db:"created_at"`
}
