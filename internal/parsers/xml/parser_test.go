package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStoreID(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
		ok       bool
	}{
		{"standard layout", "PriceFull7290027600007-004-202608260800.gz", "004", true},
		{"promo file", "PromoFull7290055700007-123-202608260915.xml", "123", true},
		{"no store segment", "PriceFull.xml", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractStoreID(tt.filename)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsStoreFile(t *testing.T) {
	assert.True(t, IsStoreFile("Stores7290027600007-202608260800.xml"))
	assert.False(t, IsStoreFile("PriceFull7290027600007-004-202608260800.xml"))
	assert.False(t, IsStoreFile("StoresPrice7290027600007-004.xml"))
}

func TestParseStores(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<Root>
  <SubChains><SubChain><Stores>
    <Store>
      <StoreId>001</StoreId>
      <StoreName>סניף רמת גן</StoreName>
      <City>רמת גן</City>
      <Address>ביאליק 12</Address>
    </Store>
    <Store>
      <StoreID>002</StoreID>
      <שם_סניף>סניף חולון</שם_סניף>
      <עיר>חולון</עיר>
    </Store>
    <Store>
      <StoreName>no id, skipped</StoreName>
    </Store>
  </Stores></SubChain></SubChains>
</Root>`

	rows, err := ParseStores([]byte(doc))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "001", rows[0].ExternalID)
	assert.Equal(t, "סניף רמת גן", rows[0].Name)
	assert.Equal(t, "רמת גן", rows[0].City)
	assert.Equal(t, "ביאליק 12", rows[0].Address)

	assert.Equal(t, "002", rows[1].ExternalID)
	assert.Equal(t, "סניף חולון", rows[1].Name)
	assert.Equal(t, "חולון", rows[1].City)
}

func TestParsePricesRegular(t *testing.T) {
	doc := `<Prices>
  <StoreId>017</StoreId>
  <Items>
    <Item>
      <ItemCode>7290000000001</ItemCode>
      <ItemName>חלב 3%</ItemName>
      <ItemPrice>6.20</ItemPrice>
      <Quantity>1</Quantity>
      <UnitQty>ליטר</UnitQty>
      <bIsWeighted>0</bIsWeighted>
      <PriceUpdateDate>2026-08-26 07:00</PriceUpdateDate>
    </Item>
  </Items>
</Prices>`

	rows, meta, err := ParsePrices([]byte(doc), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "7290000000001", row.Barcode)
	assert.Equal(t, "חלב 3%", *row.Name)
	assert.Equal(t, 6.20, row.Price)
	assert.False(t, row.IsOnSale)
	assert.Equal(t, 1.0, *row.Quantity)
	assert.Equal(t, "ליטר", *row.Unit)
	assert.False(t, row.IsWeighted)
	assert.Equal(t, "017", *row.StoreID)
	assert.Equal(t, "017", meta.ExternalID)
}

func TestParsePricesPromoDecision(t *testing.T) {
	tests := []struct {
		name      string
		item      string
		wantPrice float64
		wantSale  bool
	}{
		{
			"promo strictly lower wins",
			"<ItemPrice>10.00</ItemPrice><PromotionPrice>8.50</PromotionPrice>",
			8.50, true,
		},
		{
			"promo equal is not a sale",
			"<ItemPrice>10.00</ItemPrice><PromotionPrice>10.00</PromotionPrice>",
			10.00, false,
		},
		{
			"promo higher is not a sale",
			"<ItemPrice>10.00</ItemPrice><PromotionPrice>12.00</PromotionPrice>",
			10.00, false,
		},
		{
			"promo alone taken at face value",
			"<PromotionPrice>7.00</PromotionPrice>",
			7.00, true,
		},
		{
			"unparseable promo falls back to regular",
			"<ItemPrice>10.00</ItemPrice><PromotionPrice>n/a</PromotionPrice>",
			10.00, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "<Prices><Item><ItemCode>729</ItemCode>" + tt.item + "</Item></Prices>"
			rows, _, err := ParsePrices([]byte(doc), "")
			require.NoError(t, err)
			require.Len(t, rows, 1)
			assert.Equal(t, tt.wantPrice, rows[0].Price)
			assert.Equal(t, tt.wantSale, rows[0].IsOnSale)
		})
	}
}

func TestParsePricesSkipsItemsWithoutPriceOrBarcode(t *testing.T) {
	doc := `<Prices>
  <Item><ItemCode>111</ItemCode></Item>
  <Item><ItemPrice>4.00</ItemPrice></Item>
  <Item><ItemCode>222</ItemCode><Price>4.00</Price></Item>
</Prices>`

	rows, _, err := ParsePrices([]byte(doc), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "222", rows[0].Barcode)
}

func TestParsePricesPromotionBlocks(t *testing.T) {
	doc := `<Promos>
  <Promotions>
    <Promotion>
      <DiscountedPrice>5.90</DiscountedPrice>
      <PromotionUpdateDate>2026-08-26</PromotionUpdateDate>
      <PromotionItems>
        <Item><ItemCode>7290000000002</ItemCode></Item>
        <Item><ItemCode>7290000000003</ItemCode></Item>
      </PromotionItems>
    </Promotion>
    <Promotion>
      <PromotionDescription>no price, skipped</PromotionDescription>
    </Promotion>
  </Promotions>
</Promos>`

	rows, _, err := ParsePrices([]byte(doc), "009")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.Equal(t, 5.90, row.Price)
		assert.True(t, row.IsOnSale)
		assert.Nil(t, row.Name)
		assert.Equal(t, "2026-08-26", *row.Date)
		assert.Equal(t, "009", *row.StoreID)
	}
}

func TestParsePricesStoreElementOverridesRoot(t *testing.T) {
	doc := `<Prices>
  <StoreId>001</StoreId>
  <City>תל אביב</City>
  <Store>
    <StoreId>042</StoreId>
    <City>חיפה</City>
    <Address>דרך העצמאות 1</Address>
  </Store>
  <Item><ItemCode>1</ItemCode><ItemPrice>2.00</ItemPrice></Item>
</Prices>`

	rows, meta, err := ParsePrices([]byte(doc), "")
	require.NoError(t, err)
	assert.Equal(t, "042", meta.ExternalID)
	assert.Equal(t, "חיפה", meta.City)
	assert.Equal(t, "דרך העצמאות 1", meta.Address)
	require.Len(t, rows, 1)
	assert.Equal(t, "042", *rows[0].StoreID)
}

func TestParsePricesFilenameStoreIDFallback(t *testing.T) {
	doc := `<Prices><Item><ItemCode>1</ItemCode><ItemPrice>2.00</ItemPrice></Item></Prices>`

	rows, meta, err := ParsePrices([]byte(doc), "055")
	require.NoError(t, err)
	assert.Equal(t, "055", meta.ExternalID)
	require.Len(t, rows, 1)
	assert.Equal(t, "055", *rows[0].StoreID)
}

func TestParsePricesDirectChildrenFallback(t *testing.T) {
	// Some chains skip the Item wrapper entirely.
	doc := `<Prices>
  <Product><ItemCode>5</ItemCode><ItemPrice>3.10</ItemPrice></Product>
</Prices>`

	rows, _, err := ParsePrices([]byte(doc), "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "5", rows[0].Barcode)
}

func TestParsePricesWindows1255(t *testing.T) {
	// <Prices><Item><ItemCode>9</ItemCode><ItemName>חלב</ItemName><ItemPrice>1.00</ItemPrice></Item></Prices>
	// with the Hebrew word in Windows-1255 bytes.
	hebrew := []byte{0xE7, 0xEC, 0xE1}
	doc := append([]byte("<Prices><Item><ItemCode>9</ItemCode><ItemName>"), hebrew...)
	doc = append(doc, []byte("</ItemName><ItemPrice>1.00</ItemPrice></Item></Prices>")...)

	rows, _, err := ParsePrices(doc, "")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "חלב", *rows[0].Name)
}

func TestParseDispatch(t *testing.T) {
	storeDoc := `<Root><Store><StoreId>1</StoreId></Store></Root>`
	parsed, err := Parse([]byte(storeDoc), "Stores7290-202608260800.xml")
	require.NoError(t, err)
	assert.True(t, parsed.IsStoreFile)
	assert.Len(t, parsed.Stores, 1)

	priceDoc := `<Prices><Item><ItemCode>1</ItemCode><ItemPrice>2.00</ItemPrice></Item></Prices>`
	parsed, err = Parse([]byte(priceDoc), "PriceFull7290-033-202608260800.xml")
	require.NoError(t, err)
	assert.False(t, parsed.IsStoreFile)
	require.Len(t, parsed.Prices, 1)
	assert.Equal(t, "033", *parsed.Prices[0].StoreID)
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse([]byte("<Prices><Item>"), "PriceFull-001-1.xml")
	assert.Error(t, err)
}
