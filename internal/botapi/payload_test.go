package botapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-tgbot/internal/botapi"
	apierrors "github.com/central-university-dev/go-tgbot/internal/domain/errors"
)

func TestPayload_BuildURL(t *testing.T) {
	payloads := []*botapi.Payload{
		botapi.NewEmptyPayload("getMe"),
		botapi.NewJSONPayload("sendMessage", map[string]any{"chat_id": 1, "text": "hi"}),
		botapi.NewFormPayload("sendDocument", botapi.NewForm().InsertText("chat_id", 1)),
	}

	for _, p := range payloads {
		assert.Equal(t, "https://api.telegram.org/bot123:abc/"+p.Path, p.BuildURL("https://api.telegram.org", "123:abc"))
	}
}

func TestPayload_Kinds(t *testing.T) {
	empty := botapi.NewEmptyPayload("getMe")
	body, contentType, err := empty.Encode()

	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, empty.Method)
	assert.Nil(t, body)
	assert.Empty(t, contentType)

	data := botapi.SendMessage{ChatID: 42, Text: "привет <b>мир</b>", ParseMode: "HTML"}
	jsonPayload := data.Payload()

	body, contentType, err = jsonPayload.Encode()
	require.NoError(t, err)

	expected, err := json.Marshal(data)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, jsonPayload.Method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, expected, body)

	formPayload := botapi.NewFormPayload("sendPhoto", botapi.NewForm().InsertText("chat_id", 42))

	_, contentType, err = formPayload.Encode()
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, formPayload.Method)
	assert.Contains(t, contentType, "multipart/form-data; boundary=")
}

func TestPayload_DeferredMarshalError(t *testing.T) {
	var payload *botapi.Payload

	require.NotPanics(t, func() {
		payload = botapi.NewJSONPayload("sendMessage", map[string]any{"bad": func() {}})
	})

	_, _, err := payload.Encode()

	var payloadErr *apierrors.PayloadError

	require.ErrorAs(t, err, &payloadErr)
	assert.Equal(t, "sendMessage", payloadErr.Method)
	assert.Equal(t, "marshal", payloadErr.Kind)
}

func TestGetUpdates_OmitsEmptyAllowedUpdates(t *testing.T) {
	body, _, err := botapi.GetUpdates{Offset: 10, Limit: 100, Timeout: 30}.Payload().Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"offset":10,"limit":100,"timeout":30}`, string(body))

	body, _, err = botapi.GetUpdates{Offset: 10, AllowedUpdates: []string{"message"}}.Payload().Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"offset":10,"allowed_updates":["message"]}`, string(body))
}

func TestSendMediaGroup_AttachesUploads(t *testing.T) {
	call := botapi.SendMediaGroup{
		ChatID: 7,
		Media: []botapi.InputMedia{
			botapi.NewInputMediaPhoto(botapi.FileID("existing")),
			botapi.NewInputMediaPhoto(botapi.FileBytes{Name: "new.jpg", Bytes: []byte("jpeg")}),
		},
	}

	body, contentType, err := call.Payload().Encode()
	require.NoError(t, err)

	parts := make(map[string]part)
	for _, p := range readParts(t, body, contentType) {
		parts[p.name] = p
	}

	assert.Equal(t, "7", parts["chat_id"].body)
	assert.JSONEq(t, `[{"type":"photo","media":"existing"},{"type":"photo","media":"attach://media-1"}]`, parts["media"].body)
	assert.Equal(t, "new.jpg", parts["media-1"].filename)
	assert.Equal(t, "jpeg", parts["media-1"].body)
}
