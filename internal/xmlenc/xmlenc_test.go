package xmlenc

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	assert.Equal(t, "a &amp;&amp; b", Escape("a && b"))
	assert.Equal(t, "&lt;tag&gt;", Escape("<tag>"))
	assert.Equal(t, "&quot;quoted&quot;", Escape(`"quoted"`))
	assert.Equal(t, "it&apos;s", Escape("it's"))
	assert.Equal(t, "plain text", Escape("plain text"))
}

func TestSerializeEmptyElement(t *testing.T) {
	out := Serialize(NewElement("VAST"), Options{OmitDeclaration: true})
	assert.Equal(t, "<VAST/>", out)
}

func TestSerializeAttributes(t *testing.T) {
	el := NewElement("Ad").SetAttr("id", "abc").SetAttr("sequence", "1")
	out := Serialize(el, Options{OmitDeclaration: true})
	assert.Equal(t, `<Ad id="abc" sequence="1"/>`, out)
}

func TestSetAttrReplacesInPlace(t *testing.T) {
	el := NewElement("MediaFile").
		SetAttr("delivery", "progressive").
		SetAttr("type", "video/mp4").
		SetAttr("delivery", "streaming")

	out := Serialize(el, Options{OmitDeclaration: true})
	assert.Equal(t, `<MediaFile delivery="streaming" type="video/mp4"/>`, out)
}

func TestSerializeAttributeEscaping(t *testing.T) {
	el := NewElement("Ad").SetAttr("id", `a"b&c`)
	out := Serialize(el, Options{OmitDeclaration: true})
	assert.Equal(t, `<Ad id="a&quot;b&amp;c"/>`, out)
}

func TestSerializeTextEscaped(t *testing.T) {
	el := NewElement("AdTitle").SetText("Cats & Dogs <3")
	out := Serialize(el, Options{OmitDeclaration: true})
	assert.Equal(t, "<AdTitle>Cats &amp; Dogs &lt;3</AdTitle>", out)
}

func TestSerializeCDATAUnescaped(t *testing.T) {
	el := NewElement("Impression").SetCDATA("https://t.example.com/i?a=1&b=2")
	out := Serialize(el, Options{OmitDeclaration: true})
	assert.Equal(t, "<Impression><![CDATA[https://t.example.com/i?a=1&b=2]]></Impression>", out)
}

func TestSerializeCDATATerminatorSplit(t *testing.T) {
	el := NewElement("Impression").SetCDATA("https://x.example/a]]>b")
	out := Serialize(el, Options{OmitDeclaration: true})
	assert.Equal(t, "<Impression><![CDATA[https://x.example/a]]]]><![CDATA[>b]]></Impression>", out)

	// The split sections re-parse to the original value.
	var parsed struct {
		Value string `xml:",chardata"`
	}
	require.NoError(t, xml.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "https://x.example/a]]>b", parsed.Value)
}

func TestSerializeDeclaration(t *testing.T) {
	out := Serialize(NewElement("VAST"), Options{})
	assert.Equal(t, `<?xml version="1.0" encoding="UTF-8"?><VAST/>`, out)
}

func TestSerializeIndented(t *testing.T) {
	root := NewElement("VAST").SetAttr("version", "3.0")
	ad := NewElement("Ad").SetAttr("id", "x")
	ad.Append(NewElement("AdTitle").SetText("Hello"))
	root.Append(ad)

	out := Serialize(root, Options{Indent: "  "})
	expected := `<?xml version="1.0" encoding="UTF-8"?>
<VAST version="3.0">
  <Ad id="x">
    <AdTitle>Hello</AdTitle>
  </Ad>
</VAST>
`
	assert.Equal(t, expected, out)
}

func TestSerializeDeterministic(t *testing.T) {
	build := func() string {
		root := NewElement("VAST")
		root.Append(
			NewElement("A").SetText("1"),
			NewElement("B").SetCDATA("2"),
			NewElement("C"),
		)
		return Serialize(root, Options{Indent: "  "})
	}
	assert.Equal(t, build(), build())
}

func TestChildLookup(t *testing.T) {
	root := NewElement("InLine")
	root.Append(NewElement("AdSystem"), NewElement("AdTitle"))

	assert.NotNil(t, root.Child("AdTitle"))
	assert.Equal(t, "AdSystem", root.Child("AdSystem").Name)
	assert.Nil(t, root.Child("Creatives"))
}
