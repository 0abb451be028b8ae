// ABOUTME: Version constants for tzscroll
// ABOUTME: Reported in server hellos and client request headers
package version

const (
	Version      = "0.1.0"
	Product      = "tzscroll"
	Manufacturer = "Harper Reed"
)

// UserAgent identifies tzscroll clients to the backend
func UserAgent() string {
	return Product + "/" + Version
}
