package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/dDict/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding
type jsonSerializerImpl struct {
}

// rawRequest uses pointers to tell missing fields apart from empty ones
type rawRequest struct {
	Command    *string   `json:"command"`
	Word       *string   `json:"word"`
	Meanings   *[]string `json:"meanings"`
	OldMeaning *string   `json:"oldMeaning"`
	NewMeaning *string   `json:"newMeaning"`
	Delay      *int64    `json:"delay"`
}

// wireRequest always carries the fields the command requires, even when
// they are empty, so blank input reaches the server's validation
type wireRequest struct {
	Command    common.CommandType `json:"command"`
	Word       string             `json:"word"`
	Meanings   *[]string          `json:"meanings,omitempty"`
	OldMeaning *string            `json:"oldMeaning,omitempty"`
	NewMeaning *string            `json:"newMeaning,omitempty"`
	Delay      int64              `json:"delay,omitempty"`
}

type rawResponse struct {
	Status   *string  `json:"status"`
	Message  string   `json:"message"`
	Meanings []string `json:"meanings"`
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j *jsonSerializerImpl) SerializeRequest(req *common.Request) ([]byte, error) {
	w := wireRequest{Command: req.Command, Word: req.Word}
	switch req.Command {
	case common.CmdAdd:
		meanings := req.Meanings
		if meanings == nil {
			meanings = []string{}
		}
		w.Meanings = &meanings
	case common.CmdAddMeaning:
		w.NewMeaning = &req.NewMeaning
	case common.CmdUpdateMeaning:
		w.OldMeaning = &req.OldMeaning
		w.NewMeaning = &req.NewMeaning
	}
	if req.Command.IsMutation() {
		w.Delay = req.Delay
	}
	return marshal(&w)
}

func (j *jsonSerializerImpl) DeserializeRequest(b []byte) (*common.Request, error) {
	var raw rawRequest
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, err)
	}
	if raw.Command == nil {
		return nil, fmt.Errorf("%w: missing field command", ErrMalformedRequest)
	}

	cmd := common.ParseCommandType(*raw.Command)
	if cmd == common.CmdUnknown {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, *raw.Command)
	}

	missing := func(field string) error {
		return fmt.Errorf("%w: missing field %s for %s", ErrMalformedRequest, field, cmd)
	}

	req := &common.Request{Command: cmd}

	if raw.Word == nil {
		return nil, missing("word")
	}
	req.Word = *raw.Word

	switch cmd {
	case common.CmdAdd:
		if raw.Meanings == nil {
			return nil, missing("meanings")
		}
		req.Meanings = *raw.Meanings
	case common.CmdAddMeaning:
		if raw.NewMeaning == nil {
			return nil, missing("newMeaning")
		}
		req.NewMeaning = *raw.NewMeaning
	case common.CmdUpdateMeaning:
		if raw.OldMeaning == nil {
			return nil, missing("oldMeaning")
		}
		if raw.NewMeaning == nil {
			return nil, missing("newMeaning")
		}
		req.OldMeaning = *raw.OldMeaning
		req.NewMeaning = *raw.NewMeaning
	}

	if raw.Delay != nil && cmd.IsMutation() {
		req.Delay = *raw.Delay
	}
	return req, nil
}

func (j *jsonSerializerImpl) SerializeResponse(resp *common.Response) ([]byte, error) {
	return marshal(resp)
}

func (j *jsonSerializerImpl) DeserializeResponse(b []byte) (*common.Response, error) {
	var raw rawResponse
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.Status == nil {
		return nil, fmt.Errorf("%w: missing field status", ErrMalformedResponse)
	}
	return &common.Response{
		Status:   *raw.Status,
		Message:  raw.Message,
		Meanings: raw.Meanings,
	}, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// marshal encodes v without HTML escaping and without the trailing newline
// that json.Encoder appends.
func marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
