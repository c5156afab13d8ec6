package domain

import (
	"time"
)

// RoomType is the kind of rental listing.
type RoomType string

const (
	RoomTypeRoom      RoomType = "room"
	RoomTypeStudio    RoomType = "studio"
	RoomTypeApartment RoomType = "apartment"
)

// Valid reports whether t is one of the known room types.
func (t RoomType) Valid() bool {
	switch t {
	case RoomTypeRoom, RoomTypeStudio, RoomTypeApartment:
		return true
	}
	return false
}

// RoomStatus is the availability of a listing.
type RoomStatus string

const (
	RoomStatusAvailable RoomStatus = "available"
	RoomStatusRented    RoomStatus = "rented"
)

// RoomProperties mirrors the properties object of a rooms API feature.
type RoomProperties struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	Price          float64    `json:"price"`
	Area           *float64   `json:"area"`
	Address        *string    `json:"address"`
	RoomType       RoomType   `json:"roomType"`
	Status         RoomStatus `json:"status"`
	Description    *string    `json:"description"`
	Phone          *string    `json:"phone"`
	PhoneFormatted *string    `json:"phoneFormatted"`
}

// PointGeometry is a GeoJSON Point.
type PointGeometry struct {
	Type        string     `json:"type"`
	Coordinates Coordinate `json:"coordinates"`
}

// Room is a GeoJSON Feature describing one rental listing.
type Room struct {
	Type       string         `json:"type"`
	Geometry   PointGeometry  `json:"geometry"`
	Properties RoomProperties `json:"properties"`
}

// Location returns the room's position.
func (r Room) Location() Coordinate {
	return r.Geometry.Coordinates
}

// RoomCollection is a GeoJSON FeatureCollection of rooms.
type RoomCollection struct {
	Type     string `json:"type"`
	Features []Room `json:"features"`
}

// RoomImage is a stock picture served for a room type.
type RoomImage struct {
	URL      string   `json:"url"`
	RoomType RoomType `json:"roomType,omitempty"`
	Alt      string   `json:"alt,omitempty"`
}

// RoomDetail is a room together with its optional illustration.
type RoomDetail struct {
	Room  *Room      `json:"room"`
	Image *RoomImage `json:"image,omitempty"`
}

// FilterValues are the search filters a user edits in the filter bar.
// Nil numeric filters are unset.
type FilterValues struct {
	Address       string   `json:"address"`
	AddressRadius float64  `json:"addressRadius"`
	MinPrice      *float64 `json:"minPrice,omitempty"`
	MaxPrice      *float64 `json:"maxPrice,omitempty"`
	MinArea       *float64 `json:"minArea,omitempty"`
	MaxArea       *float64 `json:"maxArea,omitempty"`
	RoomType      RoomType `json:"roomType"`
}

// InitialFilters is the filter state on first load and after a reset.
func InitialFilters() FilterValues {
	return FilterValues{AddressRadius: DefaultRadiusMeters}
}

// RoomSearchParams are the query parameters sent to the rooms API.
type RoomSearchParams struct {
	Address       string      `json:"address,omitempty"`
	AddressRadius float64     `json:"addressRadius,omitempty"`
	Bounds        *Bounds     `json:"bounds,omitempty"`
	Near          *Coordinate `json:"near,omitempty"`
	Radius        float64     `json:"radius,omitempty"`
	MinPrice      *float64    `json:"minPrice,omitempty"`
	MaxPrice      *float64    `json:"maxPrice,omitempty"`
	MinArea       *float64    `json:"minArea,omitempty"`
	MaxArea       *float64    `json:"maxArea,omitempty"`
	RoomType      RoomType    `json:"roomType,omitempty"`
	Status        RoomStatus  `json:"status,omitempty"`
}

// RoomViewing is a request to visit a room.
type RoomViewing struct {
	ID            int64     `json:"id"`
	RoomID        int64     `json:"roomId"`
	FullName      string    `json:"fullName"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email,omitempty"`
	PreferredTime time.Time `json:"preferredTime"`
	Note          string    `json:"note,omitempty"`
	Status        string    `json:"status,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ViewingRequest is the payload to book a room viewing.
type ViewingRequest struct {
	RoomID        int64     `json:"roomId" validate:"required,gt=0"`
	FullName      string    `json:"fullName" validate:"required,min=2,max=100"`
	Phone         string    `json:"phone" validate:"required,min=9,max=16,startsnotwith=-"`
	Email         string    `json:"email,omitempty" validate:"omitempty,email"`
	PreferredTime time.Time `json:"preferredTime" validate:"required"`
	Note          string    `json:"note,omitempty" validate:"max=500"`
}

// ViewingRequested is published when a viewing has been booked.
type ViewingRequested struct {
	Viewing     RoomViewing `json:"viewing"`
	RoomTitle   string      `json:"room_title"`
	RequestedAt time.Time   `json:"requested_at"`
}
