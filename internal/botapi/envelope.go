package botapi

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

var (
	errMissingOK     = errors.New("в ответе нет поля ok")
	errMissingResult = errors.New("в ответе нет поля result")
)

// Envelope - верхний уровень любого ответа Bot API.
type Envelope struct {
	OK              bool
	Result          jx.Raw
	Description     string
	ErrorCode       int
	RetryAfter      int
	MigrateToChatID int64
}

func decodeEnvelope(data []byte) (Envelope, error) {
	var (
		env   Envelope
		hasOK bool
	)

	d := jx.DecodeBytes(data)

	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}

		switch string(key) {
		case "ok":
			v, err := d.Bool()
			if err != nil {
				return errors.Wrap(err, "ok")
			}

			env.OK, hasOK = v, true
		case "result":
			raw, err := d.Raw()
			if err != nil {
				return errors.Wrap(err, "result")
			}

			env.Result = append(jx.Raw(nil), raw...)
		case "description":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "description")
			}

			env.Description = v
		case "error_code":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "error_code")
			}

			env.ErrorCode = v
		case "parameters":
			if err := decodeParameters(d, &env); err != nil {
				return errors.Wrap(err, "parameters")
			}
		default:
			return d.Skip()
		}

		return nil
	})
	if err != nil {
		return Envelope{}, err
	}

	if !hasOK {
		return Envelope{}, errMissingOK
	}

	return env, nil
}

func decodeParameters(d *jx.Decoder, env *Envelope) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if d.Next() == jx.Null {
			return d.Null()
		}

		switch string(key) {
		case "retry_after":
			v, err := d.Int()
			if err != nil {
				return err
			}

			env.RetryAfter = v
		case "migrate_to_chat_id":
			v, err := d.Int64()
			if err != nil {
				return err
			}

			env.MigrateToChatID = v
		default:
			return d.Skip()
		}

		return nil
	})
}
