package tui

type loadStatus int

const (
	statusLoading loadStatus = iota
	statusSuccess
	statusError
)

// uiState is the load state of a screen: Loading, Success with data, or
// Error with a message.
type uiState[T any] struct {
	status loadStatus
	data   T
	err    string
}

func loadingState[T any]() uiState[T] {
	return uiState[T]{status: statusLoading}
}

func successState[T any](data T) uiState[T] {
	return uiState[T]{status: statusSuccess, data: data}
}

func errorState[T any](err error) uiState[T] {
	return uiState[T]{status: statusError, err: err.Error()}
}

func (s uiState[T]) loading() bool { return s.status == statusLoading }

// get returns the data and whether the state is Success.
func (s uiState[T]) get() (T, bool) {
	return s.data, s.status == statusSuccess
}

// failed returns the error message and whether the state is Error.
func (s uiState[T]) failed() (string, bool) {
	return s.err, s.status == statusError
}

func renderLoading(w int, title string) string {
	return panelStyle.Width(w).Render(titleStyle.Render(title) + "\n\n" + mutedStyle.Render("Loading..."))
}

func renderError(w int, title, msg string) string {
	return panelStyle.Width(w).Render(
		titleStyle.Render(title) + "\n\n" +
			errorStyle.Render(msg) + "\n\n" +
			mutedStyle.Render("Press r to retry"),
	)
}
