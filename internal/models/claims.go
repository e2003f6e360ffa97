package models

// Claims represents JWT claims identifying the hosting application.
type Claims struct {
	AppID string `json:"app_id"`
	Exp   int64  `json:"exp"`
}
