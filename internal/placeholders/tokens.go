package placeholders

import (
	"regexp"
	"strings"

	"github.com/dpshade/pocket-placeholders/internal/models"
)

// OwnerCore tags the built-in placeholders.
const OwnerCore = "Core"

// Built-in tokens.
const (
	Date            = "${DATE}"
	DateTime        = "${DATE_TIME}"
	UserDisplayName = "${USER_DISPLAY_NAME}"
	UserEmail       = "${USER_EMAIL}"
	UserFirstName   = "${USER_FIRST_NAME}"
	UserLastName    = "${USER_LAST_NAME}"
)

// Layouts used for ${DATE} and ${DATE_TIME}, e.g. "22 Jul, 2014".
const (
	DateLayout     = "2 Jan, 2006"
	DateTimeLayout = "2 Jan, 2006 15:04:05"
)

var (
	tokenPattern = regexp.MustCompile(`^\$\{[A-Z0-9_]+\}$`)
	namePattern  = regexp.MustCompile(`^[A-Z0-9_]+$`)
)

// IsToken reports whether s has the ${NAME} shape.
func IsToken(s string) bool {
	return tokenPattern.MatchString(s)
}

// IsName reports whether s is a bare token name such as CITY.
func IsName(s string) bool {
	return namePattern.MatchString(s)
}

// Token wraps name as ${NAME}. Names that are already wrapped are returned as is.
func Token(name string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "${") && strings.HasSuffix(name, "}") {
		return name
	}
	return "${" + name + "}"
}

// Name strips the ${ } wrapper from a token.
func Name(token string) string {
	return strings.TrimSuffix(strings.TrimPrefix(token, "${"), "}")
}

// Builtins returns the Core placeholders in their registration order.
func Builtins() *models.PlaceholderSet {
	return models.NewPlaceholderSet(
		models.Placeholder{Token: Date, Label: "Date", Owner: OwnerCore},
		models.Placeholder{Token: DateTime, Label: "Date & Time", Owner: OwnerCore},
		models.Placeholder{Token: UserFirstName, Label: "User First name", Owner: OwnerCore},
		models.Placeholder{Token: UserLastName, Label: "User Last name", Owner: OwnerCore},
		models.Placeholder{Token: UserDisplayName, Label: "User Display name", Owner: OwnerCore},
		models.Placeholder{Token: UserEmail, Label: "User email", Owner: OwnerCore},
	)
}
