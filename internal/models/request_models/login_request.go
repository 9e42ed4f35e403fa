package request_models

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=80"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Phone    string `json:"phone" binding:"omitempty,e164"`
}

type SendCodeRequest struct {
	Phone string `json:"phone" binding:"required,e164"`
}

type VerifyCodeRequest struct {
	Phone string `json:"phone" binding:"required,e164"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type AddCategoryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=40"`
}
