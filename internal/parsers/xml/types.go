package xml

// Candidate element names probed in order; the first non-empty text wins.
// The government transparency format was never standardized across chains,
// so every field carries the spellings observed in the wild, English and
// Hebrew alike. Order encodes preference: the canonical regulator name
// first, chain-specific aliases after.

var (
	storeIDCandidates = []string{"StoreId", "StoreID", "storeid"}

	storeNameCandidates = []string{
		"StoreName", "StoreNm", "Name",
		"שם_סניף", "סניף", "שם",
	}

	cityCandidates = []string{
		"City", "CityName", "StoreCity",
		"עיר", "יישוב",
	}

	addressCandidates = []string{
		"Address", "Street", "StoreAddress",
		"AddressLine1", "FullAddress", "Location",
		"StreetAddress", "Addr", "StoreLocation",
		"כתובת", "רחוב", "מיקום", "כתובת_סניף",
	}

	itemNameCandidates = []string{"ItemName", "ItemNm", "ItemDescription", "Description"}

	barcodeCandidates = []string{"ItemCode", "Barcode"}

	regularPriceCandidates = []string{"ItemPrice", "Price", "RegularPrice", "ListPrice"}

	promoPriceCandidates = []string{"PromotionPrice", "DiscountedPrice", "SalePrice", "DiscountPrice"}

	promoBlockPriceCandidates = []string{"DiscountedPrice", "DiscountRate"}

	promoDateCandidates = []string{"PromotionUpdateDate", "UpdateDate", "PromotionStartDate"}

	priceDateCandidates = []string{"PriceUpdateDate", "UpdateDate"}

	brandCandidates = []string{"ManufacturerName", "BrandName"}

	unitCandidates = []string{"UnitQty", "UnitOfMeasure"}

	quantityCandidates = []string{"Quantity", "Content", "QtyInPackage"}

	weightedCandidates = []string{"bIsWeighted", "BisWeighted"}

	imageCandidates = []string{
		"ItemImage", "Image", "ImageUrl", "ImageURL",
		"Picture", "PictureUrl", "Photo", "PhotoUrl",
		"תמונה", "קישור_תמונה",
	}
)
