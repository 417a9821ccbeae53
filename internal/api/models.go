package api

// Auth
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type VerifyOtpRequest struct {
	Email string `json:"email"`
	Otp   string `json:"otp"`
}

type ResendOtpRequest struct {
	Email string `json:"email"`
	Type  string `json:"type"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Otp         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Bookings
type WalkInBookingRequest struct {
	VehicleID         int `json:"vehicle_id"`
	ParkingLocationID int `json:"parking_location_id"`
	DurationHours     int `json:"duration_hours"`
}

type AdvanceBookingRequest struct {
	VehicleID         int    `json:"vehicle_id"`
	ParkingLocationID int    `json:"parking_location_id"`
	Date              string `json:"date"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
}

type VerifyTokenRequest struct {
	Token string `json:"token"`
}
