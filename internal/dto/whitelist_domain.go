package dto

// CreateWhitelistDomainRequest 域名可以是 example.com，也可以是完整 URL
type CreateWhitelistDomainRequest struct {
	Domain string `json:"domain" binding:"required,max=255" msg:"error.domain_invalid"`
}
