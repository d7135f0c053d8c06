package elastic

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/olivere/elastic/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadVenuesTSV(t *testing.T) {
	in := "id\tname\taddress\tcategory\tlat\tlon\n" +
		"v1\tSiri Fort Sports Complex\tAugust Kranti Marg\tstadium\t28.5494\t77.2167\n" +
		"v2\tTalkatora Indoor Stadium\tTalkatora Garden\tstadium\t28.6279\t77.1967\n"

	got, err := ReadVenuesTSV(strings.NewReader(in))
	require.NoError(t, err)

	want := []Venue{
		{ID: "v1", Name: "Siri Fort Sports Complex", Address: "August Kranti Marg", Category: "stadium", Location: elastic.GeoPoint{Lat: 28.5494, Lon: 77.2167}},
		{ID: "v2", Name: "Talkatora Indoor Stadium", Address: "Talkatora Garden", Category: "stadium", Location: elastic.GeoPoint{Lat: 28.6279, Lon: 77.1967}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("venues mismatch (-want +got):\n%s", diff)
	}
}

func TestReadVenuesTSV_Errors(t *testing.T) {
	const header = "id\tname\taddress\tcategory\tlat\tlon\n"
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty file", input: "", wantErr: "empty"},
		{name: "wrong header", input: "id\tname\taddress\tkind\tlat\tlon\n", wantErr: `expected "category"`},
		{name: "bad latitude", input: header + "v1\tA\tB\tgym\tnorth\t77.2\n", wantErr: "line 2: parse lat"},
		{name: "out of range", input: header + "v1\tA\tB\tgym\t95\t77.2\n", wantErr: "line 2: invalid coordinate"},
		{name: "missing id", input: header + "\tA\tB\tgym\t28.6\t77.2\n", wantErr: "missing id"},
		{name: "short row", input: header + "v1\tA\tB\n", wantErr: "line 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadVenuesTSV(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
