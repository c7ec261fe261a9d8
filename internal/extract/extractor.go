package extract

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/tt67wq/xianyu-spider/internal/models"
	"github.com/tt67wq/xianyu-spider/utils"
)

// SearchAPIPath identifies the search endpoint. A response is in scope iff
// its request URL contains this substring; everything else is ignored.
const SearchAPIPath = "h5api.m.goofish.com/h5/mtop.taobao.idlemtopsearch.pc.search"

// Per-field defaults substituted when a nested field is missing or malformed.
const (
	DefaultTitle  = "未知标题"
	DefaultArea   = "地区未知"
	DefaultSeller = "匿名卖家"
	DefaultPrice  = "价格异常"
)

// Listing links come back with an app-specific scheme that has to be
// rewritten to the public web prefix before storage.
const (
	appLinkPrefix = "fleamarket://"
	webLinkPrefix = "https://www.goofish.com/"
)

// priceContextLabel is the leading label on the price fragment list.
const priceContextLabel = "当前价"

// MatchesSearchAPI reports whether a request URL belongs to the search endpoint.
func MatchesSearchAPI(url string) bool {
	return strings.Contains(url, SearchAPIPath)
}

// Extract turns one raw search API response body into product records.
// Missing or malformed fields on an item degrade to per-field defaults
// instead of dropping the item; a body without a result list yields nil.
func Extract(body []byte) []models.ProductRecord {
	items := gjson.GetBytes(body, "data.resultList")
	if !items.IsArray() {
		return nil
	}

	var records []models.ProductRecord
	items.ForEach(func(_, item gjson.Result) bool {
		records = append(records, extractItem(item))
		return true
	})
	return records
}

func extractItem(item gjson.Result) models.ProductRecord {
	main := item.Get("data.item.main.exContent")
	clickArgs := item.Get("data.item.main.clickParam.args")

	price := extractPrice(main.Get("price"))

	rawLink := item.Get("data.item.main.targetUrl").String()
	link := strings.Replace(rawLink, appLinkPrefix, webLinkPrefix, 1)

	imageURL := main.Get("picUrl").String()
	if imageURL != "" && !strings.HasPrefix(imageURL, "http") {
		imageURL = "https:" + imageURL
	}

	return models.ProductRecord{
		Title:       stringOr(main.Get("title"), DefaultTitle),
		Price:       price,
		PriceCents:  utils.ParsePriceToCents(price),
		Area:        stringOr(main.Get("area"), DefaultArea),
		Seller:      stringOr(main.Get("userNickName"), DefaultSeller),
		Link:        link,
		ImageURL:    imageURL,
		PublishTime: extractPublishTime(clickArgs.Get("publishTime")),
	}
}

// extractPrice joins the price text fragments, strips the leading context
// label and expands the 万 textual form to a plain yuan value, matching the
// display convention the rest of the pipeline parses.
func extractPrice(parts gjson.Result) string {
	if !parts.IsArray() {
		return DefaultPrice
	}

	var b strings.Builder
	parts.ForEach(func(_, p gjson.Result) bool {
		b.WriteString(p.Get("text").String())
		return true
	})

	price := strings.TrimSpace(strings.ReplaceAll(b.String(), priceContextLabel, ""))
	if strings.Contains(price, "万") {
		numStr := strings.NewReplacer("¥", "", "万", "").Replace(price)
		if n, err := strconv.ParseFloat(numStr, 64); err == nil {
			price = fmt.Sprintf("¥%.0f", n*10000)
		}
	}
	return price
}

// extractPublishTime converts the click-tracking publishTime parameter, a
// digit string of epoch milliseconds, to a timestamp. Absent or non-numeric
// values mean "unknown time" and map to nil.
func extractPublishTime(v gjson.Result) *time.Time {
	if v.Type != gjson.String || !isDigits(v.Str) {
		return nil
	}
	ms, err := strconv.ParseInt(v.Str, 10, 64)
	if err != nil {
		return nil
	}
	t := time.UnixMilli(ms)
	return &t
}

// stringOr mirrors the safe nested lookup contract: the default applies only
// when the field is absent, not when it is present but empty.
func stringOr(v gjson.Result, def string) string {
	if !v.Exists() {
		return def
	}
	return v.String()
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
