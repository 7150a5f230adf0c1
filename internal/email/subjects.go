package email

const (
	subjectCallbackAlert  = "Callback requested on the funnel"
	subjectQualifiedAlert = "New qualified lead"
)
