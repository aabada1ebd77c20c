package auth

// The single admin login pair, installed once at startup from the
// loaded configuration. Login stays disabled while either is empty.
var adminUsername string
var adminPassword string

// SetCredentials installs the admin login pair checked by LoginHandler.
func SetCredentials(username, password string) {
	adminUsername = username
	adminPassword = password
}
