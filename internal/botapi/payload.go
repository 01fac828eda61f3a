package botapi

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/central-university-dev/go-tgbot/internal/domain/errors"
)

type BodyKind int

const (
	BodyEmpty BodyKind = iota
	BodyJSON
	BodyForm
)

func (k BodyKind) String() string {
	switch k {
	case BodyJSON:
		return "json"
	case BodyForm:
		return "form"
	default:
		return "empty"
	}
}

// Payload описывает один вызов Bot API независимо от транспорта. Создание
// никогда не завершается ошибкой: она сохраняется и возвращается из Encode.
type Payload struct {
	Path   string
	Method string

	kind BodyKind
	form *Form
	json []byte
	err  error
}

func NewFormPayload(path string, form *Form) *Payload {
	if form == nil {
		form = NewForm()
	}

	return &Payload{Path: path, Method: http.MethodPost, kind: BodyForm, form: form}
}

func NewJSONPayload(path string, data any) *Payload {
	body, err := json.Marshal(data)

	return &Payload{Path: path, Method: http.MethodPost, kind: BodyJSON, json: body, err: err}
}

func NewEmptyPayload(path string) *Payload {
	return &Payload{Path: path, Method: http.MethodGet, kind: BodyEmpty}
}

func (p *Payload) Kind() BodyKind {
	return p.kind
}

func (p *Payload) BuildURL(base, token string) string {
	return base + "/bot" + token + "/" + p.Path
}

// Encode возвращает тело и Content-Type. Для пустого запроса оба значения пусты.
func (p *Payload) Encode() ([]byte, string, error) {
	switch p.kind {
	case BodyJSON:
		if p.err != nil {
			return nil, "", &apierrors.PayloadError{Method: p.Path, Kind: "marshal", Cause: p.err}
		}

		return p.json, "application/json", nil
	case BodyForm:
		body, contentType, err := p.form.Build()
		if err != nil {
			return nil, "", &apierrors.PayloadError{Method: p.Path, Kind: "form", Cause: err}
		}

		return body, contentType, nil
	default:
		return nil, "", nil
	}
}
