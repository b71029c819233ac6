package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"gridvolt/internal/models"
	"gridvolt/internal/ocpp/protocol"
	"gridvolt/internal/repository"
	"gridvolt/internal/service"
)

// fakeRecords is an in-memory Records implementation. Every InTx call on the
// owning fakeStore operates on the same state, which is good enough for
// single-handler tests.
type fakeRecords struct {
	stations   map[string]*models.Station
	connectors map[int64]*models.Connector
	users      map[string]*models.User
	sessions   map[int64]*models.ChargingSession

	nextSessionID int64
	touched       []int64
	statusWrites  []statusWrite
}

type statusWrite struct {
	connectorID int64
	status      models.ConnectorStatus
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{
		stations:      make(map[string]*models.Station),
		connectors:    make(map[int64]*models.Connector),
		users:         make(map[string]*models.User),
		sessions:      make(map[int64]*models.ChargingSession),
		nextSessionID: 100,
	}
}

func (f *fakeRecords) StationByChargePoint(ctx context.Context, chargePointID string) (*models.Station, error) {
	station, ok := f.stations[chargePointID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return station, nil
}

func (f *fakeRecords) StationByID(ctx context.Context, id int64) (*models.Station, error) {
	for _, station := range f.stations {
		if station.ID == id {
			return station, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRecords) TouchStation(ctx context.Context, id int64) error {
	f.touched = append(f.touched, id)
	return nil
}

func (f *fakeRecords) ConnectorInStation(ctx context.Context, stationID, connectorID int64) (*models.Connector, error) {
	connector, ok := f.connectors[connectorID]
	if !ok || connector.StationID != stationID {
		return nil, repository.ErrNotFound
	}
	return connector, nil
}

func (f *fakeRecords) ConnectorByID(ctx context.Context, id int64) (*models.Connector, error) {
	connector, ok := f.connectors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return connector, nil
}

func (f *fakeRecords) UpdateConnectorStatus(ctx context.Context, connectorID int64, status models.ConnectorStatus) error {
	if connector, ok := f.connectors[connectorID]; ok {
		connector.Status = status
	}
	f.statusWrites = append(f.statusWrites, statusWrite{connectorID: connectorID, status: status})
	return nil
}

func (f *fakeRecords) UserByTag(ctx context.Context, tag string) (*models.User, error) {
	user, ok := f.users[tag]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeRecords) UserByID(ctx context.Context, id int64) (*models.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRecords) UpdateUserBalance(ctx context.Context, userID int64, balance float64) error {
	for _, user := range f.users {
		if user.ID == userID {
			user.Balance = balance
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRecords) CreateSession(ctx context.Context, session *models.ChargingSession) error {
	f.nextSessionID++
	session.ID = f.nextSessionID
	session.TransactionID = session.ID
	f.sessions[session.TransactionID] = session
	return nil
}

func (f *fakeRecords) SessionByTransactionID(ctx context.Context, transactionID int64) (*models.ChargingSession, error) {
	session, ok := f.sessions[transactionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return session, nil
}

func (f *fakeRecords) OpenSessionForConnector(ctx context.Context, connectorID int64) (*models.ChargingSession, error) {
	for _, session := range f.sessions {
		if session.ConnectorID == connectorID && session.Open() {
			return session, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRecords) UpdateSessionEnergy(ctx context.Context, sessionID int64, energyKWh float64) error {
	for _, session := range f.sessions {
		if session.ID == sessionID {
			session.EnergyKWh = energyKWh
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRecords) CloseSession(ctx context.Context, session *models.ChargingSession) error {
	f.sessions[session.TransactionID] = session
	return nil
}

type fakeStore struct {
	rec *fakeRecords
}

func (f *fakeStore) InTx(ctx context.Context, fn func(repository.Records) error) error {
	return fn(f.rec)
}

func newFakeStore() (*fakeStore, *fakeRecords) {
	rec := newFakeRecords()
	return &fakeStore{rec: rec}, rec
}

func seedStation(rec *fakeRecords, chargePointID string, price float64) *models.Station {
	station := &models.Station{
		ID:                 int64(len(rec.stations) + 1),
		ChargePointID:      chargePointID,
		Name:               "Test Station",
		DefaultPricePerKWh: price,
		IsOperational:      true,
	}
	rec.stations[chargePointID] = station
	return station
}

func seedConnector(rec *fakeRecords, id, stationID int64) *models.Connector {
	connector := &models.Connector{
		ID:            id,
		StationID:     stationID,
		ConnectorType: "Type2",
		Status:        models.ConnectorAvailable,
	}
	rec.connectors[id] = connector
	return connector
}

func seedUser(rec *fakeRecords, id int64, tag string, balance float64) *models.User {
	user := &models.User{ID: id, Username: "driver", Code: tag, Balance: balance}
	rec.users[tag] = user
	return user
}

func mustJSON(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return raw
}

func TestBootNotificationTouchesStation(t *testing.T) {
	store, rec := newFakeStore()
	station := seedStation(rec, "CP-1", 12.5)

	handler := NewBootNotificationHandler(store, 300, zap.NewNop())
	result, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.BootNotificationRequest{
		ChargePointVendor: "Volt", ChargePointModel: "X1",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.Dropped {
		t.Fatal("boot must always be answered")
	}

	resp := result.Payload.(protocol.BootNotificationResponse)
	if resp.Status != protocol.RegistrationAccepted {
		t.Fatalf("expected Accepted, got %q", resp.Status)
	}
	if resp.Interval != 300 {
		t.Fatalf("expected interval 300, got %d", resp.Interval)
	}
	if _, err := time.Parse(time.RFC3339, resp.CurrentTime); err != nil {
		t.Fatalf("currentTime not RFC3339: %q", resp.CurrentTime)
	}
	if len(rec.touched) != 1 || rec.touched[0] != station.ID {
		t.Fatalf("expected station %d touched once, got %v", station.ID, rec.touched)
	}
}

func TestBootNotificationUnknownChargePointStillAccepted(t *testing.T) {
	store, rec := newFakeStore()

	handler := NewBootNotificationHandler(store, 300, zap.NewNop())
	result, err := handler(context.Background(), "CP-ghost", mustJSON(t, protocol.BootNotificationRequest{}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	resp := result.Payload.(protocol.BootNotificationResponse)
	if resp.Status != protocol.RegistrationAccepted {
		t.Fatalf("expected Accepted for unregistered charge point, got %q", resp.Status)
	}
	if len(rec.touched) != 0 {
		t.Fatalf("no station must be touched, got %v", rec.touched)
	}
}

func TestHeartbeatReturnsServerTime(t *testing.T) {
	result, err := NewHeartbeatHandler()(context.Background(), "CP-1", json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	resp := result.Payload.(protocol.HeartbeatResponse)
	if _, err := time.Parse(time.RFC3339, resp.CurrentTime); err != nil {
		t.Fatalf("currentTime not RFC3339: %q", resp.CurrentTime)
	}
}

func TestStatusNotificationUpdatesConnector(t *testing.T) {
	store, rec := newFakeStore()
	station := seedStation(rec, "CP-1", 10)
	connector := seedConnector(rec, 7, station.ID)

	handler := NewStatusNotificationHandler(store, zap.NewNop())
	result, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.StatusNotificationRequest{
		ConnectorID: 7, Status: "Preparing",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.Dropped {
		t.Fatal("status notification must be acked")
	}
	if connector.Status != models.ConnectorCharging {
		t.Fatalf("Preparing must map to Charging, got %q", connector.Status)
	}
}

func TestStatusNotificationMirrorsConnector(t *testing.T) {
	store, rec := newFakeStore()
	station := seedStation(rec, "CP-1", 10)
	primary := seedConnector(rec, 7, station.ID)
	mirror := seedConnector(rec, 8, station.ID)
	mirrorID := mirror.ID
	primary.MirrorConnectorID = &mirrorID

	handler := NewStatusNotificationHandler(store, zap.NewNop())
	if _, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.StatusNotificationRequest{
		ConnectorID: 7, Status: "Faulted",
	})); err != nil {
		t.Fatalf("handler: %v", err)
	}

	if primary.Status != models.ConnectorUnavailable {
		t.Fatalf("primary status: got %q", primary.Status)
	}
	if mirror.Status != models.ConnectorUnavailable {
		t.Fatalf("mirror must receive the same status, got %q", mirror.Status)
	}
}

func TestStatusNotificationUnknownConnectorStillAcked(t *testing.T) {
	store, rec := newFakeStore()
	seedStation(rec, "CP-1", 10)

	handler := NewStatusNotificationHandler(store, zap.NewNop())
	result, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.StatusNotificationRequest{
		ConnectorID: 99, Status: "Available",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.Dropped {
		t.Fatal("unknown connector must still be acked")
	}
	if len(rec.statusWrites) != 0 {
		t.Fatalf("no status write expected, got %v", rec.statusWrites)
	}
}

func TestStatusNotificationRepeatIsIdempotent(t *testing.T) {
	store, rec := newFakeStore()
	station := seedStation(rec, "CP-1", 10)
	connector := seedConnector(rec, 7, station.ID)

	handler := NewStatusNotificationHandler(store, zap.NewNop())
	payload := mustJSON(t, protocol.StatusNotificationRequest{ConnectorID: 7, Status: "Charging"})

	for i := 0; i < 2; i++ {
		result, err := handler(context.Background(), "CP-1", payload)
		if err != nil {
			t.Fatalf("send %d: %v", i+1, err)
		}
		if result.Dropped {
			t.Fatalf("send %d must be acked", i+1)
		}
		if connector.Status != models.ConnectorCharging {
			t.Fatalf("send %d: status %q", i+1, connector.Status)
		}
	}

	// One status write per notification, nothing duplicated beyond that.
	if len(rec.statusWrites) != 2 {
		t.Fatalf("expected one write per send, got %d", len(rec.statusWrites))
	}
	for _, write := range rec.statusWrites {
		if write.connectorID != connector.ID || write.status != models.ConnectorCharging {
			t.Fatalf("unexpected write: %+v", write)
		}
	}
	if len(rec.sessions) != 0 {
		t.Fatalf("status notifications must not create records, got %d sessions", len(rec.sessions))
	}
}

func TestAuthorizeKnownAndUnknownTag(t *testing.T) {
	store, rec := newFakeStore()
	seedUser(rec, 1, "TAG-OK", 50)

	handler := NewAuthorizeHandler(store, zap.NewNop())

	result, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.AuthorizeRequest{IdTag: "TAG-OK"}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := result.Payload.(protocol.AuthorizeResponse).IdTagInfo.Status; got != protocol.AuthAccepted {
		t.Fatalf("known tag: expected Accepted, got %q", got)
	}

	result, err = handler(context.Background(), "CP-1", mustJSON(t, protocol.AuthorizeRequest{IdTag: "TAG-NOPE"}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := result.Payload.(protocol.AuthorizeResponse).IdTagInfo.Status; got != protocol.AuthBlocked {
		t.Fatalf("unknown tag: expected Blocked, got %q", got)
	}
}

func TestStartTransactionCreatesSession(t *testing.T) {
	store, rec := newFakeStore()
	station := seedStation(rec, "CP-1", 10)
	connector := seedConnector(rec, 3, station.ID)
	user := seedUser(rec, 42, "TAG-OK", 100)
	tracker := service.NewTransactionTracker()

	handler := NewStartTransactionHandler(store, tracker, nil, zap.NewNop())
	result, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.StartTransactionRequest{
		ConnectorID: 3, IdTag: "TAG-OK", MeterStart: 0, Timestamp: time.Now(),
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.Dropped {
		t.Fatal("valid start must be answered")
	}

	resp := result.Payload.(protocol.StartTransactionResponse)
	if resp.TransactionID <= 0 {
		t.Fatalf("expected positive transaction id, got %d", resp.TransactionID)
	}
	if resp.IdTagInfo.Status != protocol.AuthAccepted {
		t.Fatalf("expected Accepted, got %q", resp.IdTagInfo.Status)
	}

	session, ok := rec.sessions[resp.TransactionID]
	if !ok {
		t.Fatal("session not persisted")
	}
	if session.TransactionID != session.ID {
		t.Fatalf("transaction id must equal session id, got %d vs %d", session.TransactionID, session.ID)
	}
	if session.UserID != user.ID || session.ConnectorID != connector.ID {
		t.Fatalf("session bound to wrong entities: %+v", session)
	}
	if session.PaymentMethod != "AppWallet" {
		t.Fatalf("expected AppWallet payment method, got %q", session.PaymentMethod)
	}
	if session.PaymentStatus != models.PaymentPending {
		t.Fatalf("expected Pending payment status, got %q", session.PaymentStatus)
	}
	if _, tracked := tracker.Get(resp.TransactionID); !tracked {
		t.Fatal("transaction not tracked in memory")
	}
}

func TestStartTransactionDropsForUnknownTag(t *testing.T) {
	store, rec := newFakeStore()
	station := seedStation(rec, "CP-1", 10)
	seedConnector(rec, 3, station.ID)

	handler := NewStartTransactionHandler(store, service.NewTransactionTracker(), nil, zap.NewNop())
	result, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.StartTransactionRequest{
		ConnectorID: 3, IdTag: "TAG-NOPE",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !result.Dropped {
		t.Fatal("unknown tag must drop silently")
	}
	if len(rec.sessions) != 0 {
		t.Fatalf("no session must be created, got %d", len(rec.sessions))
	}
}

func TestStartTransactionDropsOnBusyConnector(t *testing.T) {
	store, rec := newFakeStore()
	station := seedStation(rec, "CP-1", 10)
	seedConnector(rec, 3, station.ID)
	seedUser(rec, 1, "TAG-OK", 100)
	tracker := service.NewTransactionTracker()

	handler := NewStartTransactionHandler(store, tracker, nil, zap.NewNop())
	payload := mustJSON(t, protocol.StartTransactionRequest{ConnectorID: 3, IdTag: "TAG-OK"})

	first, err := handler(context.Background(), "CP-1", payload)
	if err != nil || first.Dropped {
		t.Fatalf("first start must succeed: %v dropped=%v", err, first.Dropped)
	}

	second, err := handler(context.Background(), "CP-1", payload)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !second.Dropped {
		t.Fatal("start on busy connector must drop silently")
	}
	if len(rec.sessions) != 1 {
		t.Fatalf("expected exactly one session, got %d", len(rec.sessions))
	}
}

func TestMeterValuesOverwritesEnergy(t *testing.T) {
	store, rec := newFakeStore()
	session := &models.ChargingSession{ID: 101, TransactionID: 101, ConnectorID: 3, UserID: 1, StartTime: time.Now()}
	rec.sessions[101] = session
	tracker := service.NewTransactionTracker()
	tracker.Start(service.LiveTransaction{TransactionID: 101, SessionID: 101})

	handler := NewMeterValuesHandler(store, tracker, zap.NewNop())
	send := func(value string) {
		t.Helper()
		result, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.MeterValuesRequest{
			TransactionID: 101,
			MeterValue: []protocol.MeterValue{{
				Timestamp:    time.Now(),
				SampledValue: []protocol.SampledValue{{Value: value, Unit: "Wh"}},
			}},
		}))
		if err != nil {
			t.Fatalf("handler: %v", err)
		}
		if result.Dropped {
			t.Fatal("meter values must be acked")
		}
	}

	send("1500")
	if session.EnergyKWh != 1.5 {
		t.Fatalf("expected 1.5 kWh, got %v", session.EnergyKWh)
	}
	send("2750")
	if session.EnergyKWh != 2.75 {
		t.Fatalf("last reading must win, got %v", session.EnergyKWh)
	}
}

func TestMeterValuesUnparsableValueAckedWithoutWrite(t *testing.T) {
	store, rec := newFakeStore()
	session := &models.ChargingSession{ID: 101, TransactionID: 101, EnergyKWh: 1.5}
	rec.sessions[101] = session

	handler := NewMeterValuesHandler(store, service.NewTransactionTracker(), zap.NewNop())
	result, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.MeterValuesRequest{
		TransactionID: 101,
		MeterValue: []protocol.MeterValue{{
			SampledValue: []protocol.SampledValue{{Value: "garbage"}},
		}},
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.Dropped {
		t.Fatal("unparsable value must still be acked")
	}
	if session.EnergyKWh != 1.5 {
		t.Fatalf("energy must be untouched, got %v", session.EnergyKWh)
	}
}

func TestMeterValuesUnknownTransactionAcked(t *testing.T) {
	store, _ := newFakeStore()
	handler := NewMeterValuesHandler(store, service.NewTransactionTracker(), zap.NewNop())
	result, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.MeterValuesRequest{
		TransactionID: 404,
		MeterValue: []protocol.MeterValue{{
			SampledValue: []protocol.SampledValue{{Value: "1000"}},
		}},
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.Dropped {
		t.Fatal("unknown transaction must still be acked")
	}
}

func stopFixture(t *testing.T, balance float64) (*fakeStore, *fakeRecords, *service.TransactionTracker, *models.User, *models.ChargingSession) {
	t.Helper()
	store, rec := newFakeStore()
	station := seedStation(rec, "CP-1", 10) // 10 per kWh
	connector := seedConnector(rec, 3, station.ID)
	user := seedUser(rec, 42, "TAG-OK", balance)

	session := &models.ChargingSession{
		ID:            101,
		TransactionID: 101,
		ConnectorID:   connector.ID,
		UserID:        user.ID,
		StartTime:     time.Now(),
		PaymentStatus: models.PaymentPending,
	}
	rec.sessions[101] = session

	tracker := service.NewTransactionTracker()
	tracker.Start(service.LiveTransaction{TransactionID: 101, SessionID: 101, ConnectorID: connector.ID, UserID: user.ID})
	return store, rec, tracker, user, session
}

func TestStopTransactionSettlesPaidSession(t *testing.T) {
	store, _, tracker, user, session := stopFixture(t, 100)

	handler := NewStopTransactionHandler(store, tracker, nil, zap.NewNop())
	result, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.StopTransactionRequest{
		TransactionID: 101,
		MeterStop:     5000, // 5 kWh at 10 per kWh = 50
		Reason:        "Remote",
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := result.Payload.(protocol.StopTransactionResponse).IdTagInfo.Status; got != protocol.AuthAccepted {
		t.Fatalf("expected Accepted, got %q", got)
	}

	if session.Open() {
		t.Fatal("session must be closed")
	}
	if session.EnergyKWh != 5 {
		t.Fatalf("expected 5 kWh, got %v", session.EnergyKWh)
	}
	if session.Cost != 50 {
		t.Fatalf("expected cost 50, got %v", session.Cost)
	}
	if session.PaymentStatus != models.PaymentPaid {
		t.Fatalf("expected Paid, got %q", session.PaymentStatus)
	}
	if session.SettlementRef == nil || !strings.HasPrefix(*session.SettlementRef, "WALLET_TXN_") {
		t.Fatalf("expected WALLET_TXN_ reference, got %v", session.SettlementRef)
	}
	if session.StopReason == nil || *session.StopReason != "Remote" {
		t.Fatalf("expected stop reason Remote, got %v", session.StopReason)
	}
	if user.Balance != 50 {
		t.Fatalf("expected balance 50 after debit, got %v", user.Balance)
	}
	if _, tracked := tracker.Get(101); tracked {
		t.Fatal("stopped transaction must be evicted from the tracker")
	}
}

func TestStopTransactionInsufficientFunds(t *testing.T) {
	store, _, tracker, user, session := stopFixture(t, 10)

	handler := NewStopTransactionHandler(store, tracker, nil, zap.NewNop())
	result, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.StopTransactionRequest{
		TransactionID: 101,
		MeterStop:     5000,
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := result.Payload.(protocol.StopTransactionResponse).IdTagInfo.Status; got != protocol.AuthAccepted {
		t.Fatalf("insufficient funds still answers Accepted, got %q", got)
	}

	if session.PaymentStatus != models.PaymentFailed {
		t.Fatalf("expected Failed, got %q", session.PaymentStatus)
	}
	if session.SettlementRef != nil {
		t.Fatalf("failed settlement must have no reference, got %v", *session.SettlementRef)
	}
	if user.Balance != 10 {
		t.Fatalf("balance must be untouched, got %v", user.Balance)
	}
	if session.Open() {
		t.Fatal("session must still be closed")
	}
}

func TestStopTransactionUnknownTransactionNoMutation(t *testing.T) {
	store, rec, tracker, user, _ := stopFixture(t, 100)

	handler := NewStopTransactionHandler(store, tracker, nil, zap.NewNop())
	result, err := handler(context.Background(), "CP-1", mustJSON(t, protocol.StopTransactionRequest{
		TransactionID: 999,
		MeterStop:     5000,
	}))
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if got := result.Payload.(protocol.StopTransactionResponse).IdTagInfo.Status; got != protocol.AuthAccepted {
		t.Fatalf("unknown transaction still answers Accepted, got %q", got)
	}
	if user.Balance != 100 {
		t.Fatalf("balance must be untouched, got %v", user.Balance)
	}
	if !rec.sessions[101].Open() {
		t.Fatal("the open session must not be affected")
	}
}

func TestStopTransactionRecloseIsNoOp(t *testing.T) {
	store, _, tracker, user, session := stopFixture(t, 100)
	handler := NewStopTransactionHandler(store, tracker, nil, zap.NewNop())

	payload := mustJSON(t, protocol.StopTransactionRequest{TransactionID: 101, MeterStop: 5000})
	if _, err := handler(context.Background(), "CP-1", payload); err != nil {
		t.Fatalf("first stop: %v", err)
	}
	balanceAfterFirst := user.Balance
	closedAt := *session.EndTime

	second := mustJSON(t, protocol.StopTransactionRequest{TransactionID: 101, MeterStop: 9000})
	result, err := handler(context.Background(), "CP-1", second)
	if err != nil {
		t.Fatalf("second stop: %v", err)
	}
	if got := result.Payload.(protocol.StopTransactionResponse).IdTagInfo.Status; got != protocol.AuthAccepted {
		t.Fatalf("re-close still answers Accepted, got %q", got)
	}
	if user.Balance != balanceAfterFirst {
		t.Fatalf("re-close must not debit again, got %v", user.Balance)
	}
	if !session.EndTime.Equal(closedAt) {
		t.Fatal("re-close must not rewrite the close time")
	}
	if session.EnergyKWh != 5 {
		t.Fatalf("re-close must not rewrite energy, got %v", session.EnergyKWh)
	}
}
