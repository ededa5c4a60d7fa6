package domain

// TokenPair is what login and refresh return: a short-lived access token and
// the refresh token that replaces the previous one on record.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
