package normalize

// Status classifies a probe outcome.
type Status string

const (
	StatusOK         Status = "OK"
	StatusPermDenied Status = "PERM_DENIED"
	StatusNotFound   Status = "NOT_FOUND"
	StatusError      Status = "ERROR"
)

// ProbeStatus maps a probe's accessibility and exit code to a Status.
func ProbeStatus(accessible bool, exitCode int) Status {
	switch {
	case accessible && exitCode == 0:
		return StatusOK
	case exitCode == 1:
		return StatusPermDenied
	case exitCode > 1:
		return StatusNotFound
	default:
		return StatusError
	}
}
