package dwd

import "testing"

func TestParseIndexListing(t *testing.T) {
	page := []byte(`<html><head><title>Index of /historical</title></head><body>
<h1>Index of /historical</h1><hr><pre><a href="../">../</a>
<a href="10minutenwerte_nieder_00091_20100101_20191231_hist.zip">10minutenwerte_nieder_00091_20100101_20191231_hist.zip</a>  12-Jan-2024 09:00  1M
<a href="10minutenwerte_nieder_00091_20200101_20231231_hist.zip">10minutenwerte_nieder_00091_20200101_20231231_hist.zip</a>  12-Jan-2024 09:00  1M
<a href="10minutenwerte_nieder_00103_20100101_20191231_hist.zip">10minutenwerte_nieder_00103_20100101_20191231_hist.zip</a>  12-Jan-2024 09:00  1M
<a href="Beschreibung_Stationen.txt">Beschreibung_Stationen.txt</a>  12-Jan-2024 09:00  100K
</pre><hr></body></html>`)

	files, err := parseIndexListing(page, "10minutenwerte_nieder_", "_hist.zip")
	if err != nil {
		t.Fatalf("parseIndexListing failed: %v", err)
	}

	want := []string{
		"10minutenwerte_nieder_00091_20100101_20191231_hist.zip",
		"10minutenwerte_nieder_00091_20200101_20231231_hist.zip",
		"10minutenwerte_nieder_00103_20100101_20191231_hist.zip",
	}
	if len(files) != len(want) {
		t.Fatalf("got %d files, want %d: %v", len(files), len(want), files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, files[i], want[i])
		}
	}
}

func TestParseIndexListing_NoMatches(t *testing.T) {
	files, err := parseIndexListing([]byte("<html><body><a href=\"other.txt\">other</a></body></html>"),
		"10minutenwerte_TU_", "_hist.zip")
	if err != nil {
		t.Fatalf("parseIndexListing failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("got %v, want none", files)
	}
}
