package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/CamberLoid/Inazuma/internal/coordlib"
	"github.com/CamberLoid/Inazuma/internal/db"
	"github.com/CamberLoid/Inazuma/internal/payload"
)

func HandleNotFound(w http.ResponseWriter, req *http.Request) {
	returnFailure(w, req, fmt.Errorf("function not found: "+req.RequestURI), http.StatusNotFound)
}

// Generic failure
func returnFailure(w http.ResponseWriter, req *http.Request, err error, statusCode int) {
	resp := make(map[string]interface{})
	resp["status"] = "failed"
	resp["err"] = err.Error()

	respJSON, _ := json.Marshal(resp)

	w.WriteHeader(statusCode)
	w.Write(respJSON)
	ErrorLogger.Println("Error: " + err.Error())
}

func returnSuccess(w http.ResponseWriter, body map[string]interface{}) {
	body["status"] = "OK"
	respJSON, _ := json.Marshal(body)
	w.Write(respJSON)
}

// Handle /version request
func HandlerVersion(w http.ResponseWriter, req *http.Request) {
	returnSuccess(w, map[string]interface{}{
		"version": ConfigVersion,
	})
}

// Handle /context/public：向任意角色分发公开上下文
func HandlerPublicContext(w http.ResponseWriter, req *http.Request) {
	returnSuccess(w, map[string]interface{}{
		"context":     json.RawMessage(publicBlob),
		"epoch":       epoch.ID,
		"fingerprint": epoch.Fingerprint,
	})
}

// Handle /round/new：开启新回合
func HandlerRoundNew(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Expected int `json:"expected"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		returnFailure(w, req, err, http.StatusBadRequest)
		return
	}

	roundID := uuid.New()
	round := coordlib.NewRound(publicCtx, scheme, roundID, body.Expected)

	stateMu.Lock()
	rounds[roundID] = round
	stateMu.Unlock()

	if err := db.InsertRound(Database, roundID, round.Phase(), 0); err != nil {
		WarningLogger.Println("audit insert failed: " + err.Error())
	}

	InfoLogger.Printf("round %s opened, expecting %d contributors", roundID, body.Expected)
	returnSuccess(w, map[string]interface{}{
		"roundId": roundID,
	})
}

func lookupRound(roundID uuid.UUID) (*coordlib.Round, error) {
	stateMu.Lock()
	defer stateMu.Unlock()
	round, ok := rounds[roundID]
	if !ok {
		return nil, fmt.Errorf("unknown round %s", roundID)
	}
	return round, nil
}

// Handle /contribution/submit：coordinator 侧接收 (密文, 承诺) 对。
// 拒绝的贡献带结构化原因返回，agent 可以在下一回合重试。
func HandlerContributionSubmit(w http.ResponseWriter, req *http.Request) {
	request := new(payload.ContributionReq)
	if err := json.NewDecoder(req.Body).Decode(request); err != nil {
		returnFailure(w, req, err, http.StatusBadRequest)
		return
	}

	round, err := lookupRound(request.RoundID)
	if err != nil {
		returnFailure(w, req, err, http.StatusNotFound)
		return
	}

	contribution, err := request.Contribution(publicCtx)
	if err != nil {
		returnFailure(w, req, err, http.StatusBadRequest)
		return
	}

	if err = round.Submit(contribution); err != nil {
		returnFailure(w, req, err, http.StatusConflict)
		return
	}

	returnSuccess(w, map[string]interface{}{
		"roundId":  request.RoundID,
		"received": round.Count(),
	})
}

// Handle /opening/submit：utility 侧接收 opening。
// 实际部署里这个端点必须经 authority-only 信道访问，
// 演示进程内仅由 utility 持有的对象消费。
func HandlerOpeningSubmit(w http.ResponseWriter, req *http.Request) {
	request := new(payload.OpeningReq)
	if err := json.NewDecoder(req.Body).Decode(request); err != nil {
		returnFailure(w, req, err, http.StatusBadRequest)
		return
	}

	opening, err := request.Opening()
	if err != nil {
		returnFailure(w, req, err, http.StatusBadRequest)
		return
	}

	if err = utility.SubmitOpening(request.RoundID, request.AgentID, opening); err != nil {
		returnFailure(w, req, err, http.StatusConflict)
		return
	}

	returnSuccess(w, map[string]interface{}{
		"roundId": request.RoundID,
	})
}

// Handle /round/close：关闭回合、verify 并给出决策
func HandlerRoundClose(w http.ResponseWriter, req *http.Request) {
	request := new(payload.RoundCloseReq)
	if err := json.NewDecoder(req.Body).Decode(request); err != nil {
		returnFailure(w, req, err, http.StatusBadRequest)
		return
	}

	round, err := lookupRound(request.RoundID)
	if err != nil {
		returnFailure(w, req, err, http.StatusNotFound)
		return
	}

	result, err := round.Close()
	if err != nil {
		returnFailure(w, req, err, http.StatusConflict)
		return
	}

	outcome, decided, err := utility.ProcessRound(result)
	if err != nil {
		returnFailure(w, req, err, http.StatusInternalServerError)
		return
	}

	if outcome.IsValid {
		err = round.MarkVerified()
	} else {
		err = round.MarkMismatch()
		WarningLogger.Printf("round %s verification failed: %s", request.RoundID, outcome.Reason)
	}
	if err != nil {
		returnFailure(w, req, err, http.StatusInternalServerError)
		return
	}

	if err = db.InsertOutcome(Database, outcome); err != nil {
		WarningLogger.Println("audit insert failed: " + err.Error())
	}
	if err = db.UpdateRoundPhase(Database, request.RoundID, round.Phase()); err != nil {
		WarningLogger.Println("audit update failed: " + err.Error())
	}

	resp := map[string]interface{}{
		"outcome": payload.OutcomeResp{
			RoundID:        outcome.RoundID,
			IsValid:        outcome.IsValid,
			DecryptedTotal: outcome.DecryptedTotal,
			CommittedTotal: outcome.CommittedTotal,
			Discrepancy:    outcome.Discrepancy,
			Reason:         outcome.Reason,
		},
	}
	if decided != nil {
		resp["decision"] = decided
	}
	returnSuccess(w, resp)
}

// Handle /round/outcome：按回合查询审计记录
func HandlerRoundOutcome(w http.ResponseWriter, req *http.Request) {
	roundID, err := uuid.Parse(req.URL.Query().Get("round"))
	if err != nil {
		returnFailure(w, req, err, http.StatusBadRequest)
		return
	}

	outcome, err := db.GetOutcome(Database, roundID)
	if err != nil {
		returnFailure(w, req, err, http.StatusNotFound)
		return
	}

	returnSuccess(w, map[string]interface{}{
		"outcome": payload.OutcomeResp{
			RoundID:        outcome.RoundID,
			IsValid:        outcome.IsValid,
			DecryptedTotal: outcome.DecryptedTotal,
			CommittedTotal: outcome.CommittedTotal,
			Discrepancy:    outcome.Discrepancy,
			Reason:         outcome.Reason,
		},
	})
}
