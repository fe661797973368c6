package drugbank

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<drugbank xmlns="http://www.drugbank.ca" version="5.1">
  <drug type="small molecule">
    <drugbank-id>APRD00264</drugbank-id>
    <drugbank-id primary="true">DB00945</drugbank-id>
    <name>Aspirin</name>
    <products>
      <product><name>Bayer</name></product>
      <product><name>bayer</name></product>
    </products>
  </drug>
  <drug type="small molecule">
    <drugbank-id primary="true">DB01050</drugbank-id>
    <name>Ibuprofen</name>
    <products>
      <product><name>Advil</name></product>
      <product><name>MOTRIN</name></product>
    </products>
  </drug>
</drugbank>`

func parseString(t *testing.T, s string) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(s))
	require.NoError(t, err)
	return doc
}

func TestParse_RecordsInDocumentOrder(t *testing.T) {
	doc := parseString(t, sampleXML)

	records := doc.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "drug", records[0].XMLName.Local)
	assert.Equal(t, DefaultNamespace, records[0].XMLName.Space)

	name := records[1].Find(DefaultNamespace, "name")
	require.NotNil(t, name)
	assert.Equal(t, "Ibuprofen", name.Text)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty input", ""},
		{"unclosed element", `<drugbank><drug><name>x</name></drugbank>`},
		{"not xml", `this is not xml`},
		{"unknown charset", `<?xml version="1.0" encoding="x-made-up"?><drugbank/>`},
		{"two roots", `<drugbank><drug><name>A</name></drug></drugbank><drugbank><drug><name>B</name></drug></drugbank>`},
		{"trailing element", `<drugbank><drug><name>A</name></drug></drugbank><junk/>`},
		{"trailing garbage", `<drugbank><drug><name>A</name></drug></drugbank><<<`},
		{"trailing text", `<drugbank/>leftover`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestParse_AllowsTrailingMisc(t *testing.T) {
	input := `<?xml version="1.0"?>
<drugbank xmlns="http://www.drugbank.ca"><drug><name>Aspirin</name></drug></drugbank>
<!-- exported 2024-01-03 -->
<?generator drugbank?>
`
	doc := parseString(t, input)
	assert.Len(t, doc.Records(), 1)
}

func TestParse_CharsetAliases(t *testing.T) {
	for _, label := range []string{"utf8", "latin1", "windows-1252"} {
		t.Run(label, func(t *testing.T) {
			input := `<?xml version="1.0" encoding="` + label + `"?>` +
				`<drugbank xmlns="http://www.drugbank.ca"><drug><name>Aspirin</name></drug></drugbank>`

			doc := parseString(t, input)
			name := doc.Records()[0].Find(DefaultNamespace, "name")
			require.NotNil(t, name)
			assert.Equal(t, "Aspirin", name.Text)
		})
	}
}

func TestParse_Latin1Prolog(t *testing.T) {
	// e-acute encoded as a single 0xE9 byte
	input := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>" +
		"<drugbank xmlns=\"http://www.drugbank.ca\"><drug><name>Ac\xe9tylsalicylique</name></drug></drugbank>"

	doc := parseString(t, input)
	name := doc.Records()[0].Find(DefaultNamespace, "name")
	require.NotNil(t, name)
	assert.Equal(t, "Acétylsalicylique", name.Text)
}

func TestExtract_LowercasesAndDeduplicates(t *testing.T) {
	doc := parseString(t, sampleXML)
	extractor := NewExtractor(DefaultSchema(), ProductSkip)

	aspirin, err := extractor.Extract(doc.Records()[0])
	require.NoError(t, err)
	assert.Equal(t, "aspirin", aspirin.GenericName)
	assert.Equal(t, []string{"bayer"}, aspirin.Brands())

	ibuprofen, err := extractor.Extract(doc.Records()[1])
	require.NoError(t, err)
	assert.Equal(t, "ibuprofen", ibuprofen.GenericName)
	assert.ElementsMatch(t, []string{"advil", "motrin"}, ibuprofen.Brands())
}

func TestExtract_ZeroProducts(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{"no products container", `<drug xmlns="http://www.drugbank.ca"><name>Lepirudin</name></drug>`},
		{"empty products container", `<drug xmlns="http://www.drugbank.ca"><name>Lepirudin</name><products/></drug>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseString(t, "<drugbank>"+tt.record+"</drugbank>")
			m, err := NewExtractor(DefaultSchema(), ProductSkip).Extract(doc.Records()[0])
			require.NoError(t, err)
			assert.Equal(t, "lepirudin", m.GenericName)
			assert.Empty(t, m.BrandNames)
		})
	}
}

func TestExtract_MissingGenericName(t *testing.T) {
	tests := []struct {
		name   string
		record string
	}{
		{"no name element", `<drug xmlns="http://www.drugbank.ca"><drugbank-id primary="true">DB00001</drugbank-id></drug>`},
		{"empty name element", `<drug xmlns="http://www.drugbank.ca"><drugbank-id primary="true">DB00001</drugbank-id><name/></drug>`},
		{"name in wrong namespace", `<drug xmlns="http://www.drugbank.ca"><drugbank-id primary="true">DB00001</drugbank-id><name xmlns="urn:other">x</name></drug>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := parseString(t, "<drugbank>"+tt.record+"</drugbank>")
			_, err := NewExtractor(DefaultSchema(), ProductSkip).Extract(doc.Records()[0])
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFieldExtraction))

			var extractionErr *ExtractionError
			require.True(t, errors.As(err, &extractionErr))
			assert.Equal(t, FieldGenericName, extractionErr.Field)
			assert.Equal(t, "DB00001", extractionErr.Record)
			assert.Contains(t, err.Error(), "could not retrieve generic_name data of drug DB00001")
		})
	}
}

func TestExtract_ProductWithoutName(t *testing.T) {
	record := `<drugbank><drug xmlns="http://www.drugbank.ca"><name>Aspirin</name><products>
		<product><labeller>Bayer AG</labeller></product>
		<product><name>Ecotrin</name></product>
	</products></drug></drugbank>`
	doc := parseString(t, record)

	t.Run("skip", func(t *testing.T) {
		m, err := NewExtractor(DefaultSchema(), ProductSkip).Extract(doc.Records()[0])
		require.NoError(t, err)
		assert.Equal(t, []string{"ecotrin"}, m.Brands())
	})

	t.Run("halt", func(t *testing.T) {
		_, err := NewExtractor(DefaultSchema(), ProductHalt).Extract(doc.Records()[0])
		require.Error(t, err)

		var extractionErr *ExtractionError
		require.True(t, errors.As(err, &extractionErr))
		assert.Equal(t, FieldBrandName, extractionErr.Field)
		assert.Contains(t, err.Error(), "product 1")
	})
}

func TestExtract_RetargetedSchema(t *testing.T) {
	record := `<catalog><entry xmlns="urn:example:drugs"><title>Paracetamol</title><brands>
		<brand><title>Doliprane</title></brand>
		<brand><title>Tylenol</title></brand>
	</brands></entry></catalog>`
	doc := parseString(t, record)

	schema := Schema{
		Namespace:       "urn:example:drugs",
		NameElement:     "title",
		ProductsElement: "brands",
		ProductElement:  "brand",
	}
	require.NoError(t, schema.Validate())

	m, err := NewExtractor(schema, ProductSkip).Extract(doc.Records()[0])
	require.NoError(t, err)
	assert.Equal(t, "paracetamol", m.GenericName)
	assert.Equal(t, []string{"doliprane", "tylenol"}, m.Brands())
}

func TestSchemaValidate(t *testing.T) {
	assert.NoError(t, DefaultSchema().Validate())

	s := DefaultSchema()
	s.ProductElement = ""
	assert.ErrorContains(t, s.Validate(), "product element cannot be empty")

	s = DefaultSchema()
	s.NameElement = "na me"
	assert.ErrorContains(t, s.Validate(), "not a valid element name")
}

func TestParseProductPolicy(t *testing.T) {
	p, err := ParseProductPolicy("halt")
	require.NoError(t, err)
	assert.Equal(t, ProductHalt, p)

	_, err = ParseProductPolicy("ignore")
	assert.Error(t, err)
}
