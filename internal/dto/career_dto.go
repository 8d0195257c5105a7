package dto

type SeedCareersResponse struct {
	Seeded int `json:"seeded"`
}
