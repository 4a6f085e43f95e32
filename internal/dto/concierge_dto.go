package dto

type AskRequest struct {
	Query    string `json:"query" validate:"max=4000"`
	Location string `json:"location" validate:"max=120"`
}

// AskResponse is the only shape /ask ever returns. Upload failures and
// the root banner reuse it.
type AskResponse struct {
	Response string `json:"response"`
}

type WeatherResponse struct {
	Location string `json:"location"`
	Response string `json:"response"`
}
