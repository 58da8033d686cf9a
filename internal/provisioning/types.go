package provisioning

// CreateAccountRequest — тело POST {endpoint}/accounts.
type CreateAccountRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Plan         string `json:"plan"`
	DisplayName  string `json:"display_name"`
	ContactPhone string `json:"contact_phone"`
}

// RenewAccountRequest — тело POST {endpoint}/accounts/{username}/renew.
type RenewAccountRequest struct {
	ExtensionDays int `json:"extension_days"`
}

type remoteCredentials struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	AccessURL string `json:"access_url"`
}

type createAccountResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	Credentials *remoteCredentials `json:"credentials"`
}

type renewAccountResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
