package dto

type UpdateNotificationConfigRequest struct {
	DirectoryGroup       string  `json:"adGroupName"               validate:"required,max=256"`
	AdditionalRecipients *string `json:"additionalEmailRecipients" validate:"omitempty,max=2048"`
}

type NotificationConfigResponse struct {
	ID                   int     `json:"id"`
	DirectoryGroup       string  `json:"adGroupName"`
	AdditionalRecipients *string `json:"additionalEmailRecipients"`
}
