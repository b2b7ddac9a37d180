package s3

import "testing"

func TestExtractKeyFromS3Url(t *testing.T) {
	cases := map[string]string{
		"https://bucket.s3.ap-southeast-1.amazonaws.com/reports/batch1/execution_time.csv": "reports/batch1/execution_time.csv",
		"reports/batch1/execution_time.csv":                                                "reports/batch1/execution_time.csv",
	}
	for in, want := range cases {
		if got := extractKeyFromS3Url(in); got != want {
			t.Errorf("extractKeyFromS3Url(%q) = %q, want %q", in, got, want)
		}
	}
}
