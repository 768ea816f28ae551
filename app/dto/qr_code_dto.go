package dto

// CreateQRCodeRequest defines input for registering a new code
type CreateQRCodeRequest struct {
	UID  string  `json:"uid" validate:"required,min=1,max=64"`
	Name *string `json:"name,omitempty" validate:"omitempty,max=255"`
}

// QRCodeResponse is the public representation of a code
type QRCodeResponse struct {
	UUID      string  `json:"uuid"`
	UID       string  `json:"uid"`
	Name      *string `json:"name,omitempty"`
	CreatedAt string  `json:"created_at"`
}
