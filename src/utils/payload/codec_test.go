package payload

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tvm/cell"
)

func TestCodecTestSuite(t *testing.T) {
	suite.Run(t, new(CodecTestSuite))
}

type CodecTestSuite struct {
	suite.Suite
	referrer *address.Address
}

func (s *CodecTestSuite) SetupSuite() {
	s.referrer = address.NewAddress(0, 0, bytes.Repeat([]byte{0xA5}, 32))
}

func (s *CodecTestSuite) TestBetRoundTrip() {
	c, err := Encode(OpBet, 8999606968112862966, s.referrer)
	require.Nil(s.T(), err)

	p, ok := Decode(c)
	require.True(s.T(), ok)
	require.Equal(s.T(), IntentBet, p.Intent)
	require.Equal(s.T(), int64(8999606968112862966), p.UserId)
	require.NotNil(s.T(), p.Referrer)
	require.Equal(s.T(), s.referrer.Workchain(), p.Referrer.Workchain())
	require.Equal(s.T(), s.referrer.Data(), p.Referrer.Data())
}

func (s *CodecTestSuite) TestBetWithoutReferrer() {
	c, err := Encode(OpBet, -42, nil)
	require.Nil(s.T(), err)
	require.Equal(s.T(), uint(8+FillerBits+32+64+2), c.BitsSize())

	p, ok := Decode(c)
	require.True(s.T(), ok)
	require.Equal(s.T(), IntentBet, p.Intent)
	require.Equal(s.T(), int64(-42), p.UserId)
	require.Nil(s.T(), p.Referrer)
}

func (s *CodecTestSuite) TestChargeIgnoresReferrer() {
	c, err := Encode(OpCharge, 12345, s.referrer)
	require.Nil(s.T(), err)
	require.Equal(s.T(), uint(8+FillerBits+32+64), c.BitsSize())

	p, ok := Decode(c)
	require.True(s.T(), ok)
	require.Equal(s.T(), IntentCharge, p.Intent)
	require.Equal(s.T(), int64(12345), p.UserId)
	require.Nil(s.T(), p.Referrer)
}

func (s *CodecTestSuite) TestUnknownOpcode() {
	c, err := Encode(0x0badf00d, 7, nil)
	require.Nil(s.T(), err)

	p, ok := Decode(c)
	require.True(s.T(), ok)
	require.Equal(s.T(), IntentNone, p.Intent)
	require.Equal(s.T(), int64(7), p.UserId)
}

func (s *CodecTestSuite) TestFillerIgnored() {
	original := filler
	defer func() { filler = original }()

	var decoded []Payload
	for _, v := range []uint64{0, 1<<FillerBits - 1, ^uint64(0)} {
		filler = func() uint64 { return v }
		c, err := Encode(OpBet, 99, s.referrer)
		require.Nil(s.T(), err)
		p, ok := Decode(c)
		require.True(s.T(), ok)
		decoded = append(decoded, p)
	}

	for _, p := range decoded {
		require.Equal(s.T(), int64(99), p.UserId)
		require.Equal(s.T(), IntentBet, p.Intent)
	}
}

func (s *CodecTestSuite) TestWrongVersion() {
	c := cell.BeginCell().
		MustStoreUInt(0xF1, 8).
		MustStoreUInt(0, FillerBits).
		MustStoreInt(int64(OpCharge), 32).
		MustStoreInt(1, 64).
		EndCell()

	_, ok := Decode(c)
	require.False(s.T(), ok)
}

func (s *CodecTestSuite) TestTooShort() {
	_, ok := Decode(cell.BeginCell().EndCell())
	require.False(s.T(), ok)

	_, ok = Decode(cell.BeginCell().MustStoreUInt(Version>>1, 7).EndCell())
	require.False(s.T(), ok)

	_, ok = Decode(nil)
	require.False(s.T(), ok)
}

func (s *CodecTestSuite) TestTruncated() {
	// User id missing
	c := cell.BeginCell().
		MustStoreUInt(Version, 8).
		MustStoreUInt(0, FillerBits).
		MustStoreInt(int64(OpCharge), 32).
		MustStoreUInt(0, 20).
		EndCell()
	_, ok := Decode(c)
	require.False(s.T(), ok)

	// Referrer flag bits missing
	c = cell.BeginCell().
		MustStoreUInt(Version, 8).
		MustStoreUInt(0, FillerBits).
		MustStoreInt(int64(OpBet), 32).
		MustStoreInt(5, 64).
		EndCell()
	_, ok = Decode(c)
	require.False(s.T(), ok)
}

func (s *CodecTestSuite) TestBOC() {
	boc, err := EncodeBOC(OpBet, 8999606968112862966, s.referrer)
	require.Nil(s.T(), err)

	p, ok := DecodeBOC(boc)
	require.True(s.T(), ok)
	require.Equal(s.T(), int64(8999606968112862966), p.UserId)

	_, ok = DecodeBOC([]byte{1, 2, 3})
	require.False(s.T(), ok)

	_, ok = DecodeBOC(nil)
	require.False(s.T(), ok)
}
