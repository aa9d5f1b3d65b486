package http

import "time"

// Request and response bodies for the JSON API.

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"` // username or email
	Password   string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

type userResponse struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

type loginResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

type stepResponse struct {
	Footsteps int64     `json:"footsteps"`
	Timestamp time.Time `json:"timestamp"`
	ForceN    float64   `json:"force_n"`
	DisplM    float64   `json:"displacement_m"`
	EnergyJ   float64   `json:"energy_j"`
	EnergyMJ  float64   `json:"energy_mj"`
}

type eventResponse struct {
	Footsteps int64     `json:"footsteps"`
	Timestamp time.Time `json:"timestamp"`
	ForceN    float64   `json:"force_n"`
	DisplM    float64   `json:"displacement_m"`
	EnergyJ   float64   `json:"energy_j"`
}

type statsResponse struct {
	StepCount    int64   `json:"step_count"`
	TotalEnergyJ float64 `json:"total_energy_j"`
	AvgEnergyJ   float64 `json:"avg_energy_j"`
	MaxEnergyJ   float64 `json:"max_energy_j"`
	MinEnergyJ   float64 `json:"min_energy_j"`

	// Display conversions, derived from the joule totals above.
	TotalEnergyMJ  float64 `json:"total_energy_mj"`
	TotalWattHours float64 `json:"total_watt_hours"`
	EstimatedValue float64 `json:"estimated_value"`
}

type clearResponse struct {
	Deleted int64 `json:"deleted"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *healthChecks `json:"checks,omitempty"`
}

type healthChecks struct {
	Database string `json:"database"`
}
