package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/apernet/udpsock/core/udpsock"
)

func Test_parseSize(t *testing.T) {
	tests := []struct {
		name    string
		s       string
		want    int
		wantErr bool
	}{
		{name: "bytes", s: "1500", want: 1500},
		{name: "KiB", s: "64KiB", want: 65536},
		{name: "KB", s: "64KB", want: 65536},
		{name: "MiB", s: "1MiB", want: 1048576},
		{name: "space", s: "2 MiB", want: 2097152},
		{name: "empty", s: "", wantErr: true},
		{name: "negative", s: "-1", wantErr: true},
		{name: "garbage", s: "big", wantErr: true},
		{name: "too large", s: "4GiB", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSize(tt.s)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseSize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("parseSize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_resolveAddress(t *testing.T) {
	addr, err := resolveAddress("127.0.0.1:9002")
	assert.NoError(t, err)
	assert.Equal(t, udpsock.AddressFromOctets(127, 0, 0, 1, 9002), addr)

	_, err = resolveAddress("127.0.0.1")
	assert.Error(t, err)
	_, err = resolveAddress("[::1]:53")
	assert.Error(t, err)
}

func Test_newLogger(t *testing.T) {
	for _, format := range []string{"console", "json", "JSON"} {
		l, err := newLogger("debug", format)
		assert.NoError(t, err, format)
		assert.NotNil(t, l)
	}
	_, err := newLogger("loud", "console")
	assert.Error(t, err)
	_, err = newLogger("info", "xml")
	assert.Error(t, err)
}
