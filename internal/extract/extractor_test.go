package extract

import (
	"testing"
	"time"
)

const fullResponse = `{
  "data": {
    "resultList": [
      {
        "data": {
          "item": {
            "main": {
              "exContent": {
                "title": "iPhone 13 128G 九成新",
                "price": [{"text": "当前价"}, {"text": "¥"}, {"text": "3200"}],
                "area": "上海",
                "userNickName": "数码小王",
                "picUrl": "//img.alicdn.com/bao/uploaded/pic.jpg"
              },
              "targetUrl": "fleamarket://item?id=123&spm=search.a1&track=9",
              "clickParam": {"args": {"publishTime": "1724500000000"}}
            }
          }
        }
      }
    ]
  }
}`

func TestExtractFullItem(t *testing.T) {
	records := Extract([]byte(fullResponse))
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]

	if rec.Title != "iPhone 13 128G 九成新" {
		t.Errorf("title = %q", rec.Title)
	}
	if rec.Price != "¥3200" {
		t.Errorf("price = %q; want ¥3200", rec.Price)
	}
	if rec.PriceCents != 320000 {
		t.Errorf("price cents = %d; want 320000", rec.PriceCents)
	}
	if rec.Area != "上海" {
		t.Errorf("area = %q", rec.Area)
	}
	if rec.Seller != "数码小王" {
		t.Errorf("seller = %q", rec.Seller)
	}
	if rec.Link != "https://www.goofish.com/item?id=123&spm=search.a1&track=9" {
		t.Errorf("link scheme not rewritten: %q", rec.Link)
	}
	if rec.ImageURL != "https://img.alicdn.com/bao/uploaded/pic.jpg" {
		t.Errorf("protocol-relative image not upgraded: %q", rec.ImageURL)
	}
	if rec.PublishTime == nil {
		t.Fatal("publish time should be set")
	}
	if want := time.UnixMilli(1724500000000); !rec.PublishTime.Equal(want) {
		t.Errorf("publish time = %v; want %v", rec.PublishTime, want)
	}
}

func TestExtractTenThousandPriceAndMissingPublishTime(t *testing.T) {
	body := `{
	  "data": {
	    "resultList": [
	      {
	        "data": {
	          "item": {
	            "main": {
	              "exContent": {
	                "title": "二手钢琴",
	                "price": [{"text": "当前价"}, {"text": "¥1.2万"}],
	                "area": "上海",
	                "userNickName": "琴行老板",
	                "picUrl": ""
	              },
	              "targetUrl": "fleamarket://item?id=55",
	              "clickParam": {"args": {}}
	            }
	          }
	        }
	      }
	    ]
	  }
	}`
	records := Extract([]byte(body))
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]

	if rec.Price != "¥12000" {
		t.Errorf("price = %q; want ¥12000", rec.Price)
	}
	if rec.PriceCents != 1200000 {
		t.Errorf("price cents = %d; want 1200000", rec.PriceCents)
	}
	if rec.Area != "上海" {
		t.Errorf("area = %q", rec.Area)
	}
	if rec.PublishTime != nil {
		t.Errorf("publish time should be unset, got %v", rec.PublishTime)
	}
	if rec.ImageURL != "" {
		t.Errorf("empty image URL must stay empty, got %q", rec.ImageURL)
	}
}

func TestExtractMissingFieldsUseDefaults(t *testing.T) {
	body := `{"data": {"resultList": [{"data": {"item": {"main": {}}}}]}}`
	records := Extract([]byte(body))
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	rec := records[0]

	if rec.Title != DefaultTitle {
		t.Errorf("title = %q; want %q", rec.Title, DefaultTitle)
	}
	if rec.Area != DefaultArea {
		t.Errorf("area = %q; want %q", rec.Area, DefaultArea)
	}
	if rec.Seller != DefaultSeller {
		t.Errorf("seller = %q; want %q", rec.Seller, DefaultSeller)
	}
	if rec.Price != DefaultPrice {
		t.Errorf("price = %q; want %q", rec.Price, DefaultPrice)
	}
	if rec.PriceCents != -1 {
		t.Errorf("price cents = %d; want -1", rec.PriceCents)
	}
	if rec.Link != "" || rec.ImageURL != "" {
		t.Errorf("link/image must default to empty, got %q / %q", rec.Link, rec.ImageURL)
	}
	if rec.PublishTime != nil {
		t.Errorf("publish time should be unset")
	}
}

func TestExtractNonNumericPublishTime(t *testing.T) {
	body := `{"data": {"resultList": [{"data": {"item": {"main": {
	  "exContent": {"title": "x"},
	  "clickParam": {"args": {"publishTime": "not-a-number"}}
	}}}}]}}`
	records := Extract([]byte(body))
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].PublishTime != nil {
		t.Errorf("non-numeric publish time must map to unset")
	}
}

func TestExtractDegenerateBodies(t *testing.T) {
	bodies := []string{
		``,
		`{}`,
		`not json at all`,
		`{"data": {}}`,
		`{"data": {"resultList": "oops"}}`,
		`{"data": {"resultList": []}}`,
	}
	for _, body := range bodies {
		if records := Extract([]byte(body)); len(records) != 0 {
			t.Errorf("Extract(%q) = %d records; want 0", body, len(records))
		}
	}
}

func TestMatchesSearchAPI(t *testing.T) {
	in := "https://h5api.m.goofish.com/h5/mtop.taobao.idlemtopsearch.pc.search/1.0/?jsv=2.7.2"
	if !MatchesSearchAPI(in) {
		t.Errorf("search endpoint URL must match")
	}
	out := "https://h5api.m.goofish.com/h5/mtop.taobao.other.api/1.0/"
	if MatchesSearchAPI(out) {
		t.Errorf("unrelated endpoint must not match")
	}
}
