package domain

// Comparison limits for the AI assistant.
const (
	MinCompareRooms = 2
	MaxCompareRooms = 3
)

type AnalysisCoordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RoomForAnalysis is the room summary handed to the model.
type RoomForAnalysis struct {
	ID          int64               `json:"id"`
	Title       string              `json:"title"`
	Price       float64             `json:"price"`
	Area        *float64            `json:"area"`
	Address     *string             `json:"address"`
	RoomType    RoomType            `json:"roomType"`
	Description *string             `json:"description"`
	Amenities   []string            `json:"amenities,omitempty"`
	Coordinates AnalysisCoordinates `json:"coordinates"`
}

// NewRoomForAnalysis flattens a room feature for the prompt.
func NewRoomForAnalysis(r Room) RoomForAnalysis {
	p := r.Properties
	return RoomForAnalysis{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Area:        p.Area,
		Address:     p.Address,
		RoomType:    p.RoomType,
		Description: p.Description,
		Coordinates: AnalysisCoordinates{
			Latitude:  r.Geometry.Coordinates.Lat,
			Longitude: r.Geometry.Coordinates.Lon,
		},
	}
}

type UserPreferences struct {
	Budget          *float64 `json:"budget,omitempty"`
	PreferredArea   *float64 `json:"preferredArea,omitempty"`
	PriorityFactors []string `json:"priorityFactors,omitempty" validate:"omitempty,dive,oneof=price area location amenities"`
}

// AnalysisRequest asks the assistant to compare rooms.
type AnalysisRequest struct {
	Rooms       []RoomForAnalysis `json:"rooms"`
	Preferences *UserPreferences  `json:"userPreferences,omitempty"`
}

type RoomAnalysisResult struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Rank           int      `json:"rank"`
	Score          float64  `json:"score"`
	PriceScore     float64  `json:"priceScore"`
	AreaScore      float64  `json:"areaScore"`
	LocationScore  float64  `json:"locationScore"`
	AmenitiesScore float64  `json:"amenitiesScore"`
	Pros           []string `json:"pros"`
	Cons           []string `json:"cons"`
	Recommendation string   `json:"recommendation"`
}

type BestChoice struct {
	RoomID int64  `json:"roomId"`
	Reason string `json:"reason"`
}

type Analysis struct {
	Rankings          []RoomAnalysisResult `json:"rankings"`
	BestChoice        BestChoice           `json:"bestChoice"`
	ComparisonSummary string               `json:"comparisonSummary"`
	Tips              []string             `json:"tips"`
}

// AnalysisResponse is the assistant's verdict.
type AnalysisResponse struct {
	Success     bool     `json:"success"`
	Analysis    Analysis `json:"analysis"`
	GeneratedAt string   `json:"generatedAt"`
}
