package backend

import (
	"bytes"
	"strconv"

	"github.com/bytedance/sonic"
)

// FlexString accepts JSON strings and numbers alike. The backends are not
// consistent about id and price types.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := sonic.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(data), 64); err != nil {
		return err
	}
	*f = FlexString(data)
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
