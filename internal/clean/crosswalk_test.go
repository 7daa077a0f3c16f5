package clean

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoroughForUHF(t *testing.T) {
	assert.Equal(t, "Bronx", BoroughForUHF(101))
	assert.Equal(t, "Bronx", BoroughForUHF(107))
	assert.Equal(t, "Brooklyn", BoroughForUHF(211))
	assert.Equal(t, "Manhattan", BoroughForUHF(305))
	assert.Equal(t, "Queens", BoroughForUHF(410))
	assert.Equal(t, "Staten Island", BoroughForUHF(504))

	assert.Empty(t, BoroughForUHF(100))
	assert.Empty(t, BoroughForUHF(108))
	assert.Empty(t, BoroughForUHF(212))
	assert.Empty(t, BoroughForUHF(0))
	assert.Empty(t, BoroughForUHF(600))
}

func TestZIP3ForUHF(t *testing.T) {
	assert.Equal(t, "104", ZIP3ForUHF(101))
	assert.Equal(t, "100", ZIP3ForUHF(301))
	assert.Equal(t, "102", ZIP3ForUHF(310))
	assert.Equal(t, "103", ZIP3ForUHF(501))
	assert.Empty(t, ZIP3ForUHF(999))
}

func TestUHFsForZIP3(t *testing.T) {
	// All Bronx districts share the 104 prefix.
	assert.Equal(t, []int{101, 102, 103, 104, 105, 106, 107}, UHFsForZIP3("104"))

	// 111 straddles Brooklyn and Queens.
	assert.Equal(t, []int{202, 203, 206, 207, 209, 210, 401}, UHFsForZIP3("111"))

	assert.Equal(t, []int{305}, UHFsForZIP3("101"))
	assert.Nil(t, UHFsForZIP3("999"))
	assert.Nil(t, UHFsForZIP3(""))
}

func TestCrosswalkCoversAllDistricts(t *testing.T) {
	// Every code the borough map accepts has a ZIP3, and vice versa.
	for uhf := 100; uhf < 600; uhf++ {
		if BoroughForUHF(uhf) != "" {
			assert.NotEmpty(t, ZIP3ForUHF(uhf), "uhf %d missing from crosswalk", uhf)
		} else {
			assert.Empty(t, ZIP3ForUHF(uhf), "uhf %d should not be in crosswalk", uhf)
		}
	}
}

func TestParseUHF(t *testing.T) {
	assert.Equal(t, 305, ParseUHF("305"))
	assert.Equal(t, 305, ParseUHF("305.0"))
	assert.Equal(t, 305, ParseUHF(" 305 "))
	assert.Equal(t, 101, ParseUHF("101.00"))

	assert.Zero(t, ParseUHF(""))
	assert.Zero(t, ParseUHF("abc"))
	assert.Zero(t, ParseUHF("600"))  // outside every borough range
	assert.Zero(t, ParseUHF("10.5")) // not a district code
}

func TestNormalizeZIP3(t *testing.T) {
	assert.Equal(t, "104", NormalizeZIP3("104"))
	assert.Equal(t, "104", NormalizeZIP3("10451"))
	assert.Equal(t, "100", NormalizeZIP3(" 10001 "))

	assert.Empty(t, NormalizeZIP3("10"))
	assert.Empty(t, NormalizeZIP3(""))
	assert.Empty(t, NormalizeZIP3("1a4"))
}
