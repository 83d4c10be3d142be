package panels

import (
	"errors"
	"strings"

	adminservice "github.com/zappabad/stockdesk/internal/admin/service"
	"github.com/zappabad/stockdesk/internal/api"
	"github.com/zappabad/stockdesk/internal/orderflow"
)

// ErrorText is the message a panel shows for err. Input errors read as a
// sentence; server errors show the server's message.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var ve *orderflow.ValidationError
	if errors.As(err, &ve) {
		return capitalize(ve.Field) + " " + ve.Reason
	}
	var fe *adminservice.FormError
	if errors.As(err, &fe) {
		return capitalize(fe.Field) + " " + fe.Reason
	}
	var te *api.TransportError
	if errors.As(err, &te) {
		return "Could not reach the server"
	}
	return api.Message(err, err.Error())
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
