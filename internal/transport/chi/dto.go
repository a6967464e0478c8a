package chi

// suggestRequest is the body of POST /suggest-project-name.
type suggestRequest struct {
	Theme string `json:"theme"`
	Tags  string `json:"tags"`
}

type suggestedName struct {
	ProjectTitle string `json:"projectTitle"`
}

type suggestResponse struct {
	SuggestedProjectNames []suggestedName `json:"suggested_project_names"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Entries int               `json:"corpus_entries"`
}
