package response_models

type AccountLoginResponse struct {
	Token             string `json:"token,omitempty"`
	TwoFactorRequired bool   `json:"two_factor_required"`
}

type AccountResponse struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone,omitempty"`
	TwoFactorEnabled bool   `json:"two_factor_enabled"`
}

type CategoriesResponse struct {
	BuiltIn []string `json:"builtIn"`
	Custom  []string `json:"custom"`
}
